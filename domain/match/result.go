package match

import (
	"gomatch/domain/balance"
	"gomatch/domain/core"
)

// WarningCode classifies non-fatal diagnostics attached to a result
type WarningCode string

const (
	WarningInfeasibleAssignment WarningCode = "INFEASIBLE_ASSIGNMENT" // unit had no feasible match
	WarningDegenerateStratum    WarningCode = "DEGENERATE_STRATUM"    // stratum excluded from weighting
	WarningEstimandShift        WarningCode = "ESTIMAND_SHIFT"        // treated units discarded; ATT no longer targets the full treated population
	WarningShortRatio           WarningCode = "SHORT_RATIO"           // fewer than ratio controls available
)

// Warning is one diagnostic. Warnings annotate partial results instead
// of aborting the computation.
type Warning struct {
	Code    WarningCode `json:"code"`
	UnitID  core.UnitID `json:"unit_id,omitempty"`
	Stratum int         `json:"stratum,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// Weights are the per-unit analysis weights derived from an assignment
type Weights map[core.UnitID]float64

// GroupSizes counts units of one group through the pipeline stages
type GroupSizes struct {
	All       int `json:"all"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Discarded int `json:"discarded"`
}

// SampleSizes summarizes both groups for reporting
type SampleSizes struct {
	Treated GroupSizes `json:"treated"`
	Control GroupSizes `json:"control"`
}

// Result is the single record accumulating every component's output:
// configuration echo, distances, assignment, weights, diagnostics and
// the balance table. Downstream consumers (outcome models, printers,
// plotters) read from here and never reach back into the pipeline.
type Result struct {
	ID      core.ResultID `json:"id"`
	Config  Config        `json:"config"`
	Formula Formula       `json:"formula"`

	Scores     map[core.UnitID]float64 `json:"scores,omitempty"`
	Assignment *Assignment             `json:"assignment"`
	Weights    Weights                 `json:"weights"`

	Discarded       []core.UnitID `json:"discarded,omitempty"`
	EstimandShifted bool          `json:"estimand_shifted"`
	Warnings        []Warning     `json:"warnings,omitempty"`

	Balance *balance.Table `json:"balance,omitempty"`
	Sizes   SampleSizes    `json:"sizes"`

	TotalDistance float64        `json:"total_distance"`
	Seed          int64          `json:"seed"`
	RuntimeMs     int64          `json:"runtime_ms"`
	CreatedAt     core.Timestamp `json:"created_at"`
}

// MatchedRow is one exported row of the matched dataset: the original
// unit augmented with its weight, strata and score.
type MatchedRow struct {
	Unit     Unit    `json:"unit"`
	Weight   float64 `json:"weight"`
	Strata   []int   `json:"strata,omitempty"`
	Score    float64 `json:"score,omitempty"`
	HasScore bool    `json:"-"`
}

// MatchedRows exports the dataset with weights and stratum IDs attached.
// Zero-weight rows are kept or dropped per the caller's choice.
func (r *Result) MatchedRows(ds *Dataset, dropZeroWeight bool) []MatchedRow {
	rows := make([]MatchedRow, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		u := ds.Unit(i)
		w := r.Weights[u.ID]
		if dropZeroWeight && w == 0 {
			continue
		}
		row := MatchedRow{
			Unit:   *u,
			Weight: w,
			Strata: r.Assignment.StrataOf(u.ID),
		}
		if s, ok := r.Scores[u.ID]; ok {
			row.Score = s
			row.HasScore = true
		}
		rows = append(rows, row)
	}
	return rows
}
