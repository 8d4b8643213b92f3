package weights

import (
	"fmt"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// Derive computes per-unit analysis weights from a normalized
// assignment. Pair methods get uniform 1/0 weights; stratified methods
// get inverse-probability-style weights from each stratum's treated
// share. Degenerate strata (treated share 0 or 1) are excluded with a
// warning rather than aborting; they cannot arise after validity
// normalization, so a warning here means an upstream bug worth seeing.
func Derive(ds *match.Dataset, a *match.Assignment, cfg match.Config) (match.Weights, []match.Warning) {
	w := make(match.Weights, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		w[ds.Unit(i).ID] = 0
	}

	switch cfg.Method {
	case match.MethodNone, match.MethodNearest, match.MethodOptimalPair:
		return pairWeights(ds, a, cfg, w), nil
	default:
		return stratumWeights(ds, a, cfg, w)
	}
}

// pairWeights gives matched units weight 1 and unassigned units 0.
// With replacement a reused control carries its reuse count as a
// frequency weight.
func pairWeights(ds *match.Dataset, a *match.Assignment, cfg match.Config, w match.Weights) match.Weights {
	for i := 0; i < ds.Len(); i++ {
		id := ds.Unit(i).ID
		strata := a.StrataOf(id)
		if len(strata) == 0 {
			continue
		}
		if cfg.Replace && !ds.Unit(i).Treated() {
			w[id] = float64(len(strata))
		} else {
			w[id] = 1
		}
	}
	return w
}

// stratumWeights converts each stratum's treated share into weights
// for the configured estimand
func stratumWeights(ds *match.Dataset, a *match.Assignment, cfg match.Config, w match.Weights) (match.Weights, []match.Warning) {
	type counts struct {
		treated int
		control int
	}
	byStratum := make(map[int]*counts)
	for id, strata := range a.ByUnit {
		i := ds.Index(id)
		if i < 0 {
			continue
		}
		for _, s := range strata {
			c, ok := byStratum[s]
			if !ok {
				c = &counts{}
				byStratum[s] = c
			}
			if ds.Unit(i).Treated() {
				c.treated++
			} else {
				c.control++
			}
		}
	}

	var warnings []match.Warning
	degenerate := make(map[int]bool)
	for s, c := range byStratum {
		if c.treated == 0 || c.control == 0 {
			degenerate[s] = true
			warnings = append(warnings, match.Warning{
				Code:    match.WarningDegenerateStratum,
				Stratum: s,
				Detail:  fmt.Sprintf("treated share is %d/%d; stratum excluded from weighting", c.treated, c.treated+c.control),
			})
		}
	}

	for id, strata := range a.ByUnit {
		i := ds.Index(id)
		if i < 0 {
			continue
		}
		treated := ds.Unit(i).Treated()
		total := 0.0
		used := 0
		for _, s := range strata {
			if degenerate[s] {
				continue
			}
			c := byStratum[s]
			p := float64(c.treated) / float64(c.treated+c.control)
			total += estimandWeight(cfg.Estimand, treated, p)
			used++
		}
		if used > 0 {
			w[id] = total / float64(used)
		}
	}
	return w, warnings
}

// estimandWeight is the inverse-probability-style weight for one unit
// in a stratum with treated share p
func estimandWeight(estimand match.Estimand, treated bool, p float64) float64 {
	switch estimand {
	case match.EstimandATE:
		if treated {
			return 1 / p
		}
		return 1 / (1 - p)
	case match.EstimandATC:
		if treated {
			return (1 - p) / p
		}
		return 1
	default: // ATT
		if treated {
			return 1
		}
		return p / (1 - p)
	}
}

// StratumWeight exposes the per-stratum formula directly. A treated
// share of exactly 0 or 1 is a degenerate stratum error; pipeline
// callers should have excluded the stratum upstream.
func StratumWeight(estimand match.Estimand, treated bool, treatedCount, size int) (float64, error) {
	if size <= 0 || treatedCount <= 0 || treatedCount >= size {
		return 0, core.NewDegenerateStratumError(-1, treatedCount, size)
	}
	p := float64(treatedCount) / float64(size)
	return estimandWeight(estimand, treated, p), nil
}
