package constraints

import (
	"math"

	"gomatch/domain/core"
	"gomatch/domain/match"

	"github.com/montanaflynn/stats"
)

// FilterResult is the pruned candidate space handed to the solvers
type FilterResult struct {
	Matrix *match.DistanceMatrix

	// Discarded units were removed from candidacy entirely by the
	// common-support rule
	Discarded []core.UnitID

	// EstimandShifted signals that treated units were discarded, so an
	// ATT analysis now targets a restricted treated population. The
	// caller must surface this; it is never absorbed silently.
	EstimandShifted bool
}

// Apply composes the configured constraints conjunctively over a copy
// of the distance matrix: common-support discards first, then the
// distance caliper, per-covariate calipers and exact-match pruning.
func Apply(ds *match.Dataset, m *match.DistanceMatrix, cfg match.Config) (*FilterResult, error) {
	res := &FilterResult{Matrix: m.Clone()}

	if cfg.Discard != match.DiscardNone {
		if err := applyCommonSupport(ds, res, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Caliper > 0 {
		threshold := cfg.Caliper
		if cfg.CaliperSD {
			if m.Scores == nil {
				return nil, core.NewConfigError("caliper_sd", "requires a propensity-score distance")
			}
			sd, err := scoreSD(m.Scores)
			if err != nil {
				return nil, err
			}
			threshold = cfg.Caliper * sd
		}
		for row := range res.Matrix.Dist {
			for col := range res.Matrix.Dist[row] {
				if res.Matrix.Dist[row][col] > threshold {
					res.Matrix.Exclude(row, col)
				}
			}
		}
	}

	for key, width := range cfg.CovariateCalipers {
		for row, tIdx := range res.Matrix.TreatedIdx {
			tv := ds.Unit(tIdx).Covariates[key]
			for col, cIdx := range res.Matrix.ControlIdx {
				if math.Abs(tv-ds.Unit(cIdx).Covariates[key]) > width {
					res.Matrix.Exclude(row, col)
				}
			}
		}
	}

	if len(cfg.Exact) > 0 {
		for row, tIdx := range res.Matrix.TreatedIdx {
			tu := ds.Unit(tIdx)
			for col, cIdx := range res.Matrix.ControlIdx {
				cu := ds.Unit(cIdx)
				for _, key := range cfg.Exact {
					if tu.Covariates[key] != cu.Covariates[key] {
						res.Matrix.Exclude(row, col)
						break
					}
				}
			}
		}
	}

	return res, nil
}

// applyCommonSupport removes units whose score falls outside the
// opposite group's observed [min, max]
func applyCommonSupport(ds *match.Dataset, res *FilterResult, cfg match.Config) error {
	scores := res.Matrix.Scores
	if scores == nil {
		return core.NewConfigError("discard", "common-support discarding requires a propensity-score distance")
	}

	tMin, tMax := scoreRange(ds, res.Matrix.TreatedIdx, scores)
	cMin, cMax := scoreRange(ds, res.Matrix.ControlIdx, scores)

	if cfg.Discard == match.DiscardTreated || cfg.Discard == match.DiscardBoth {
		for row, tIdx := range res.Matrix.TreatedIdx {
			id := ds.Unit(tIdx).ID
			if s := scores[id]; s < cMin || s > cMax {
				res.Matrix.ExcludeRow(row)
				res.Discarded = append(res.Discarded, id)
				res.EstimandShifted = true
			}
		}
	}
	if cfg.Discard == match.DiscardControl || cfg.Discard == match.DiscardBoth {
		for col, cIdx := range res.Matrix.ControlIdx {
			id := ds.Unit(cIdx).ID
			if s := scores[id]; s < tMin || s > tMax {
				res.Matrix.ExcludeCol(col)
				res.Discarded = append(res.Discarded, id)
			}
		}
	}
	return nil
}

func scoreRange(ds *match.Dataset, idx []int, scores map[core.UnitID]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		s := scores[ds.Unit(i).ID]
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

func scoreSD(scores map[core.UnitID]float64) (float64, error) {
	vals := make([]float64, 0, len(scores))
	for _, s := range scores {
		vals = append(vals, s)
	}
	sd, err := stats.StandardDeviation(vals)
	if err != nil {
		return 0, core.NewConfigError("caliper_sd", err.Error())
	}
	return sd, nil
}
