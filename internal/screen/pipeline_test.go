package screen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/config"
	"github.com/mkweon/athena/pkg/logger"
)

type memSource struct {
	facts []contracts.Fact
}

func (s *memSource) Fetch(_ context.Context, entity string, fields []string, from, to time.Time) ([]contracts.Fact, error) {
	var out []contracts.Fact
	for _, f := range s.facts {
		if f.Entity != entity {
			continue
		}
		for _, field := range fields {
			if f.Field == field {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// addAnnuals appends three annual facts for the field, published well
// before the test screening date.
func (s *memSource) addAnnuals(entity, field string, values ...float64) {
	for i, v := range values {
		year := 2021 + i
		s.facts = append(s.facts, contracts.Fact{
			Entity:      entity,
			Field:       field,
			Value:       v,
			PeriodEnd:   time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
			PublishedAt: time.Date(year+1, 4, 20, 0, 0, 0, 0, time.UTC),
			Frequency:   contracts.FrequencyAnnual,
		})
	}
}

// seedEntity loads a full, strong fact set for one entity.
func (s *memSource) seedEntity(id string, revenue float64) {
	s.addAnnuals(id, contracts.FieldROE, 0.24, 0.25, 0.26)
	s.addAnnuals(id, contracts.FieldNetProfit, 90, 100, 110)
	s.addAnnuals(id, contracts.FieldRevenue, revenue*0.9, revenue*0.95, revenue)
	s.addAnnuals(id, contracts.FieldROIC, 0.15, 0.16, 0.16)
	s.addAnnuals(id, contracts.FieldDebtRatio, 0.25, 0.25, 0.25)
	s.addAnnuals(id, contracts.FieldCurrentRatio, 1.8, 1.8, 1.8)
	s.addAnnuals(id, contracts.FieldGrossMargin, 0.40, 0.40, 0.40)
	s.addAnnuals(id, contracts.FieldOperatingCF, 120, 130, 143)
	s.addAnnuals(id, contracts.FieldValuationPercent, 0.5, 0.5, 0.5)
}

func newTestPipeline(source *memSource, cfg *strategy.Config) *Pipeline {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	return NewPipeline(pit.NewView(source, log), cfg, log)
}

func entity(id string) contracts.Entity {
	return contracts.Entity{
		ID:     id,
		Name:   "Entity " + id,
		Status: contracts.StatusActive,
		History: []contracts.Classification{
			{Level1: "G1", Level2: "G1.1", From: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestScreenAt_EndToEnd(t *testing.T) {
	source := &memSource{}
	source.seedEntity("E1", 1000)
	source.seedEntity("E2", 800)
	source.seedEntity("E3", 600)

	cfg := strategy.Default()
	pipe := newTestPipeline(source, cfg)

	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	universe := []contracts.Entity{entity("E1"), entity("E2"), entity("E3")}

	records, err := pipe.ScreenAt(context.Background(), asOf, universe)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, rec := range records {
		assert.True(t, rec.InPool(), "entity %s: %+v", rec.Entity, rec)
		assert.Equal(t, 50.0, rec.Financial.Sum(), "entity %s", rec.Entity)
		assert.GreaterOrEqual(t, rec.TotalScore, cfg.Scoring.PassThreshold)
		assert.LessOrEqual(t, rec.TotalScore, 100.0)
	}
}

func TestScreenAt_SkipsNonTradableAndMissingData(t *testing.T) {
	source := &memSource{}
	source.seedEntity("E1", 1000)

	pipe := newTestPipeline(source, strategy.Default())
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	suspended := entity("E2")
	suspended.Status = contracts.StatusSuspended
	noData := entity("E3")

	records, err := pipe.ScreenAt(context.Background(), asOf,
		[]contracts.Entity{entity("E1"), suspended, noData})
	require.NoError(t, err)

	// E2 is not tradable and E3 has no facts; only E1 gets a record.
	require.Len(t, records, 1)
	assert.Equal(t, "E1", records[0].Entity)
}

func TestScreenAt_Deterministic(t *testing.T) {
	source := &memSource{}
	for i := 0; i < 12; i++ {
		source.seedEntity(fmt.Sprintf("E%02d", i), 1000-float64(i)*50)
	}

	cfg := strategy.Default()
	pipe := newTestPipeline(source, cfg)
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	universe := make([]contracts.Entity, 0, 12)
	for i := 0; i < 12; i++ {
		universe = append(universe, entity(fmt.Sprintf("E%02d", i)))
	}

	first, err := pipe.ScreenAt(context.Background(), asOf, universe)
	require.NoError(t, err)

	// Concurrent collection must not leak into the output order.
	for run := 0; run < 3; run++ {
		again, err := pipe.ScreenAt(context.Background(), asOf, universe)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCollect_GroupFollowsClassificationHistory(t *testing.T) {
	source := &memSource{}
	source.seedEntity("E1", 1000)
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	collector := NewCollector(pit.NewView(source, log), 3, 3)

	e := entity("E1")
	e.History = append(e.History, contracts.Classification{
		Level1: "G2", Level2: "G2.1", From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	m, err := collector.Collect(context.Background(), e, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "G1", m.Group)

	m, err = collector.Collect(context.Background(), e, time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "G2", m.Group)
}

func TestCollect_IntegrityLookbackWindow(t *testing.T) {
	source := &memSource{}
	source.seedEntity("E1", 1000)
	// Violation two years back, clean since.
	source.addAnnuals("E1", contracts.FieldIntegrityFlag, 1, 0, 0)
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	view := pit.NewView(source, log)
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	// A three-year window still sees the old violation.
	m, err := NewCollector(view, 3, 3).Collect(context.Background(), entity("E1"), asOf)
	require.NoError(t, err)
	assert.True(t, m.IntegrityViolation)

	// A one-year window has forgotten it.
	m, err = NewCollector(view, 3, 1).Collect(context.Background(), entity("E1"), asOf)
	require.NoError(t, err)
	assert.False(t, m.IntegrityViolation)
}

func TestCollect_EmptySeriesIsUnavailable(t *testing.T) {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	collector := NewCollector(pit.NewView(&memSource{}, log), 3, 3)

	// The source answers with no facts and no error; that is still
	// missing core data, not a zero-score entity.
	_, err := collector.Collect(context.Background(), entity("E9"),
		time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
	assert.True(t, contracts.IsDataUnavailable(err))
}

func TestScreenAt_EmptyUniverse(t *testing.T) {
	pipe := newTestPipeline(&memSource{}, strategy.Default())

	records, err := pipe.ScreenAt(context.Background(),
		time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
