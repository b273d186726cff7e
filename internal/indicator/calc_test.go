package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkweon/athena/internal/contracts"
)

func TestROE(t *testing.T) {
	got, err := ROE(250, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-9)

	_, err = ROE(250, 0)
	assert.ErrorIs(t, err, contracts.ErrUndefined)

	_, err = ROE(250, -100)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestAverage(t *testing.T) {
	got, err := Average([]float64{0.20, 0.25, 0.30})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-9)

	_, err = Average([]float64{0.20, 0.25})
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestMin(t *testing.T) {
	got, err := Min([]float64{0.12, 0.08, 0.15})
	require.NoError(t, err)
	assert.Equal(t, 0.08, got)

	_, err = Min([]float64{0.12})
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestTrendSlope(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"rising", []float64{0.10, 0.15, 0.20}, 0.05},
		{"falling", []float64{0.20, 0.15, 0.10}, -0.05},
		{"flat", []float64{0.15, 0.15, 0.15}, 0},
		{"noisy but level", []float64{0.10, 0.20, 0.10, 0.20}, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TrendSlope(tt.values)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := TrendSlope([]float64{1, 2})
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestCAGR(t *testing.T) {
	got, err := CAGR(100, 121, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got, 1e-9)

	_, err = CAGR(0, 121, 2)
	assert.ErrorIs(t, err, contracts.ErrUndefined)

	_, err = CAGR(100, -5, 2)
	assert.ErrorIs(t, err, contracts.ErrUndefined)

	_, err = CAGR(100, 121, 0)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestGrowthRate(t *testing.T) {
	got, err := GrowthRate(100, 115)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got, 1e-9)

	// Negative base: improvement is still positive growth.
	got, err = GrowthRate(-100, -50)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)

	_, err = GrowthRate(0, 115)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestCashflowQuality(t *testing.T) {
	got, err := CashflowQuality(130, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, got, 1e-9)

	_, err = CashflowQuality(130, 0)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestConcentrationRatio(t *testing.T) {
	// Three leaders at 1000+800+600 of a 2700 total.
	revenues := []float64{600, 1000, 150, 800, 150}
	got, err := ConcentrationRatio(revenues, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2400.0/2700.0, got, 1e-9)

	// n larger than the group degrades to CR-all = 1.
	got, err = ConcentrationRatio([]float64{100, 200}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	_, err = ConcentrationRatio(nil, 3)
	assert.ErrorIs(t, err, contracts.ErrUndefined)

	_, err = ConcentrationRatio([]float64{0, 0}, 3)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestRank(t *testing.T) {
	peers := []float64{1000, 800, 600, 150, 150}
	assert.Equal(t, 1, Rank(1000, peers))
	assert.Equal(t, 2, Rank(800, peers))
	assert.Equal(t, 3, Rank(600, peers))
	assert.Equal(t, 4, Rank(150, peers))
}

func TestRelativeSize(t *testing.T) {
	peers := []float64{1000, 800, 600}
	got, err := RelativeSize(600, peers)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got, 1e-9)

	_, err = RelativeSize(600, []float64{0, 0})
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}

func TestPercentile(t *testing.T) {
	peers := []float64{10, 20, 30, 40}
	got, err := Percentile(35, peers)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-9)

	_, err = Percentile(35, nil)
	assert.ErrorIs(t, err, contracts.ErrUndefined)
}
