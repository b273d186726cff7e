package contracts

// Pipeline stage definitions (SSOT).
// Every log line, score record, and DB row uses these constants.
//
// Pipeline flow:
//   P0 → P1 → P2 → P3 → P4 → P5 → P6
//   Data  Qualify  Exclude  Score  Diversify  Portfolio  Analytics

// Stage represents a pipeline stage.
type Stage string

const (
	// StageData P0: point-in-time fact resolution.
	// Location: internal/pit/
	StageData Stage = "P0_DATA"

	// StageQualify P1: AND-of-all qualification gate.
	// Location: internal/screen/qualify.go
	StageQualify Stage = "P1_QUALIFY"

	// StageExclude P2: one-vote-veto exclusion gate.
	// Location: internal/screen/exclude.go
	StageExclude Stage = "P2_EXCLUDE"

	// StageScore P3: rule-table quality scoring.
	// Location: internal/screen/score.go
	StageScore Stage = "P3_SCORE"

	// StageDiversify P4: group share cap over the scored pool.
	// Location: internal/screen/diversify.go
	StageDiversify Stage = "P4_DIVERSIFY"

	// StagePortfolio P5: rebalance accounting.
	// Location: internal/portfolio/
	StagePortfolio Stage = "P5_PORTFOLIO"

	// StageAnalytics P6: performance reduction.
	// Location: internal/analytics/
	StageAnalytics Stage = "P6_ANALYTICS"
)

// String returns the stage name.
func (s Stage) String() string {
	return string(s)
}

// ShortName returns the abbreviated stage name (e.g. "P0", "P1").
func (s Stage) ShortName() string {
	if len(s) < 2 {
		return "UNKNOWN"
	}
	return string(s[:2])
}

// AllStages returns all pipeline stages in order.
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageQualify,
		StageExclude,
		StageScore,
		StageDiversify,
		StagePortfolio,
		StageAnalytics,
	}
}

// IsValidStage checks if a stage string is valid.
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
