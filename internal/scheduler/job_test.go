package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobHistory_AddAndQuery(t *testing.T) {
	history := &JobHistory{}

	for i := 0; i < 5; i++ {
		history.AddResult(JobResult{
			JobName:   "fact_sync",
			StartTime: time.Now(),
			Success:   i%2 == 0,
		})
	}

	assert.Len(t, history.GetLatestResults(3), 3)
	assert.Len(t, history.GetFailedResults(), 2)
	assert.InDelta(t, 0.6, history.GetSuccessRate(), 1e-9)
}

func TestJobHistory_CapsAtHundred(t *testing.T) {
	history := &JobHistory{}
	for i := 0; i < 150; i++ {
		history.AddResult(JobResult{JobName: "daily_screen", Success: true})
	}
	assert.Len(t, history.Results, 100)
}

func TestJobHistory_EmptySuccessRate(t *testing.T) {
	history := &JobHistory{}
	assert.Zero(t, history.GetSuccessRate())
	assert.Empty(t, history.GetLatestResults(5))
}
