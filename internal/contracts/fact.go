package contracts

import "time"

// Frequency is the reporting frequency of a fact.
type Frequency string

const (
	FrequencyAnnual    Frequency = "annual"
	FrequencyQuarterly Frequency = "quarterly"

	// FrequencyDaily marks observations like closing prices that are
	// public the moment they exist, with no reporting lag.
	FrequencyDaily Frequency = "daily"
)

// Fact is a single observed or reported value for an entity. Facts are
// immutable once stored; a correction is a new Fact with a later
// PublishedAt, never an in-place update.
type Fact struct {
	Entity      string    `json:"entity"`
	Field       string    `json:"field"`
	Value       float64   `json:"value"`
	PeriodEnd   time.Time `json:"period_end"`   // end of the period the value describes
	PublishedAt time.Time `json:"published_at"` // declared publication timestamp
	Frequency   Frequency `json:"frequency"`
}

// Field names used across the pipeline.
// ⭐ SSOT: every fact lookup goes through these constants
const (
	FieldNetProfit        = "net_profit"
	FieldRevenue          = "revenue"
	FieldEquity           = "equity"
	FieldROE              = "roe"
	FieldROIC             = "roic"
	FieldDebtRatio        = "debt_ratio"
	FieldCurrentRatio     = "current_ratio"
	FieldQuickRatio       = "quick_ratio"
	FieldOperatingCF      = "operating_cf"
	FieldGrossMargin      = "gross_margin"
	FieldGoodwillRatio    = "goodwill_ratio"
	FieldPledgeRatio      = "pledge_ratio"
	FieldRelatedTxnRatio  = "related_txn_ratio"
	FieldValuationPercent = "pe_percentile"
	FieldIntegrityFlag    = "integrity_flag"
	FieldClose            = "close"
)

// NewerThan reports whether f supersedes other under point-in-time selection:
// most recent report period wins, ties broken by most recent publication.
func (f *Fact) NewerThan(other *Fact) bool {
	if other == nil {
		return true
	}
	if !f.PeriodEnd.Equal(other.PeriodEnd) {
		return f.PeriodEnd.After(other.PeriodEnd)
	}
	return f.PublishedAt.After(other.PublishedAt)
}
