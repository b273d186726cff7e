package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkweon/athena/internal/contracts"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestRuleTable_Evaluate(t *testing.T) {
	table := RuleTable{Bands: []Band{
		{Threshold: 0.20, Points: 15},
		{Threshold: 0.15, Points: 12},
		{Threshold: 0.10, Points: 8},
	}}

	tests := []struct {
		value float64
		want  float64
	}{
		{0.25, 15},
		{0.20, 15}, // inclusive at the threshold
		{0.17, 12},
		{0.10, 8},
		{0.05, 0}, // below every band
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Evaluate(tt.value), "value %v", tt.value)
	}
}

func TestRuleTable_EvaluateInverted(t *testing.T) {
	table := RuleTable{Inverted: true, Bands: []Band{
		{Threshold: 0.30, Points: 8},
		{Threshold: 0.45, Points: 6},
		{Threshold: 0.60, Points: 4},
	}}

	tests := []struct {
		value float64
		want  float64
	}{
		{0.25, 8},
		{0.30, 8}, // inclusive at the ceiling
		{0.40, 6},
		{0.60, 4},
		{0.90, 0}, // above every band
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Evaluate(tt.value), "value %v", tt.value)
	}
}

func TestRequiredRank(t *testing.T) {
	q := Default().Qualification

	// CR3 of 2400/2700 lands in the high-concentration tier.
	assert.Equal(t, 3, q.RequiredRank(0.889))
	assert.Equal(t, 2, q.RequiredRank(0.55))
	assert.Equal(t, 1, q.RequiredRank(0.20))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty strategy id", func(c *Config) { c.Meta.StrategyID = "" }},
		{"zero roe years", func(c *Config) { c.Qualification.ROEYears = 0 }},
		{"no concentration tiers", func(c *Config) { c.Qualification.ConcentrationTiers = nil }},
		{"pass threshold above range", func(c *Config) { c.Scoring.PassThreshold = 120 }},
		{"empty rule table", func(c *Config) { c.Scoring.Growth.Bands = nil }},
		{"unordered bands", func(c *Config) {
			c.Scoring.Growth.Bands = []Band{{Threshold: 0.05, Points: 5}, {Threshold: 0.15, Points: 10}}
		}},
		{"sub-scores exceed total", func(c *Config) {
			c.Scoring.Growth.Bands[0].Points = 90
		}},
		{"group ratio above one", func(c *Config) { c.Diversification.MaxGroupRatio = 1.5 }},
		{"bad weight method", func(c *Config) { c.Portfolio.WeightMethod = "cap" }},
		{"bad frequency", func(c *Config) { c.Backtest.RebalanceFrequency = "weekly" }},
		{"negative capital", func(c *Config) { c.Backtest.InitialCapital = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var cfgErr *contracts.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestValidateAcceptsAllFrequencies(t *testing.T) {
	for _, freq := range []string{FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyYearly} {
		cfg := Default()
		cfg.Backtest.RebalanceFrequency = freq
		assert.NoError(t, Validate(cfg), freq)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	yaml := `
meta:
  strategy_id: test-strategy
  version: "2.0"
scoring:
  pass_threshold: 70
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "test-strategy", cfg.Meta.StrategyID)
	assert.Equal(t, 70.0, cfg.Scoring.PassThreshold)
	// Untouched sections keep defaults.
	assert.Equal(t, 0.35, cfg.Diversification.MaxGroupRatio)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	yaml := `
meta:
  strategy_id: test-strategy
  typo_field: oops
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, _, err := Load(path)
	require.Error(t, err)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Scoring.PassThreshold = 65
	h3, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
