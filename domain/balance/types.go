package balance

import (
	"math"

	"gomatch/domain/core"
)

// Statistic holds the before/after balance diagnostics for one term.
// "Before" is the unweighted original sample, "after" the weighted
// matched sample. Variance ratios are NaN for binary terms.
type Statistic struct {
	Term   core.CovariateKey `json:"term"`
	Binary bool              `json:"binary"`

	MeanDiffBefore float64 `json:"mean_diff_before"`
	MeanDiffAfter  float64 `json:"mean_diff_after"`

	SMDBefore float64 `json:"smd_before"`
	SMDAfter  float64 `json:"smd_after"`

	VarRatioBefore float64 `json:"var_ratio_before"`
	VarRatioAfter  float64 `json:"var_ratio_after"`

	ECDFMaxBefore  float64 `json:"ecdf_max_before"`
	ECDFMaxAfter   float64 `json:"ecdf_max_after"`
	ECDFMeanBefore float64 `json:"ecdf_mean_before"`
	ECDFMeanAfter  float64 `json:"ecdf_mean_after"`

	SMDImprovement     float64 `json:"smd_improvement"`
	ECDFMaxImprovement float64 `json:"ecdf_max_improvement"`
}

// PercentImprovement is 100·(|before| − |after|)/|before|. Undefined
// (NaN) when the before-statistic is exactly zero; that is reported,
// never raised.
func PercentImprovement(before, after float64) float64 {
	if before == 0 || math.IsNaN(before) {
		return math.NaN()
	}
	return 100 * (math.Abs(before) - math.Abs(after)) / math.Abs(before)
}

// Aggregate summarizes the worst imbalance across all terms,
// derived terms included
type Aggregate struct {
	MaxSMDBefore  float64           `json:"max_smd_before"`
	MaxSMDAfter   float64           `json:"max_smd_after"`
	MaxSMDTerm    core.CovariateKey `json:"max_smd_term"`
	MaxECDFBefore float64           `json:"max_ecdf_before"`
	MaxECDFAfter  float64           `json:"max_ecdf_after"`
	MaxECDFTerm   core.CovariateKey `json:"max_ecdf_term"`
}

// SubclassRow is the per-stratum breakdown for stratified methods
type SubclassRow struct {
	Stratum      int     `json:"stratum"`
	Treated      int     `json:"treated"`
	Control      int     `json:"control"`
	MeanScoreTrt float64 `json:"mean_score_treated"`
	MeanScoreCtl float64 `json:"mean_score_control"`
}

// Table is the assembled balance report handed to printing and
// plotting consumers. Term order follows the requested sort policy.
type Table struct {
	Terms     []Statistic   `json:"terms"`
	Aggregate Aggregate     `json:"aggregate"`
	Subclass  []SubclassRow `json:"subclass,omitempty"`
	Sort      SortPolicy    `json:"sort"`
}

// SortPolicy orders the rows of a balance table
type SortPolicy string

const (
	SortInput     SortPolicy = "input"      // covariate order as given
	SortSMDBefore SortPolicy = "smd-before" // largest pre-match SMD first
	SortSMDAfter  SortPolicy = "smd-after"  // largest post-match SMD first
	SortAlpha     SortPolicy = "alpha"      // alphabetical by term
)
