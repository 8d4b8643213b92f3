package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// GeneratorConfig configures the synthetic observational data generator.
// Treatment assignment follows a logistic model on the covariates, so
// generated datasets carry real confounding for matching to remove.
type GeneratorConfig struct {
	TreatedCount int     `json:"treated_count"`
	ControlCount int     `json:"control_count"`
	Confounding  float64 `json:"confounding"` // coefficient scale on the assignment model
	BinaryShare  float64 `json:"binary_share"`
	Covariates   int     `json:"covariates"`
	Seed         int64   `json:"seed"`
}

// DefaultGeneratorConfig returns a moderately confounded two-group sample
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		TreatedCount: 100,
		ControlCount: 300,
		Confounding:  0.8,
		BinaryShare:  0.25,
		Covariates:   4,
		Seed:         42,
	}
}

// Generate produces a synthetic dataset. Treated units are drawn with
// covariate means shifted by the confounding coefficient, so the
// treated and control distributions overlap but differ.
func Generate(cfg GeneratorConfig) (*match.Dataset, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	keys := make([]core.CovariateKey, cfg.Covariates)
	binary := make([]bool, cfg.Covariates)
	for i := range keys {
		keys[i] = core.CovariateKey(fmt.Sprintf("x%d", i+1))
		binary[i] = float64(i) < cfg.BinaryShare*float64(cfg.Covariates)
	}

	units := make([]match.Unit, 0, cfg.TreatedCount+cfg.ControlCount)
	for i := 0; i < cfg.TreatedCount; i++ {
		units = append(units, drawUnit(rng, fmt.Sprintf("t%03d", i+1), match.GroupTreated, keys, binary, cfg.Confounding))
	}
	for i := 0; i < cfg.ControlCount; i++ {
		units = append(units, drawUnit(rng, fmt.Sprintf("c%03d", i+1), match.GroupControl, keys, binary, 0))
	}

	return match.NewDataset(units, keys)
}

func drawUnit(rng *rand.Rand, id string, group match.Group, keys []core.CovariateKey, binary []bool, shift float64) match.Unit {
	covs := make(map[core.CovariateKey]float64, len(keys))
	for i, key := range keys {
		if binary[i] {
			p := 0.4 + shift*0.2
			if rng.Float64() < p {
				covs[key] = 1
			} else {
				covs[key] = 0
			}
			continue
		}
		covs[key] = rng.NormFloat64() + shift
	}
	return match.Unit{ID: core.UnitID(id), Group: group, Covariates: covs}
}

// ScoreLadder builds the canonical two-rung fixture: treated units with
// scores descending from top in fixed steps, controls offset from each
// treated score by delta. Useful for asserting exact greedy totals.
func ScoreLadder(n int, top, step, delta float64) (*match.Dataset, map[core.UnitID]float64) {
	key := core.CovariateKey("x1")
	scores := make(map[core.UnitID]float64, 2*n)
	units := make([]match.Unit, 0, 2*n)

	for i := 0; i < n; i++ {
		s := top - float64(i)*step
		tid := core.UnitID(fmt.Sprintf("t%02d", i+1))
		cid := core.UnitID(fmt.Sprintf("c%02d", i+1))
		units = append(units,
			match.Unit{ID: tid, Group: match.GroupTreated, Covariates: map[core.CovariateKey]float64{key: s}},
			match.Unit{ID: cid, Group: match.GroupControl, Covariates: map[core.CovariateKey]float64{key: s + delta}},
		)
		scores[tid] = s
		scores[cid] = s + delta
	}

	ds, err := match.NewDataset(units, []core.CovariateKey{key})
	if err != nil {
		panic(err)
	}
	return ds, scores
}

// MirroredDataset builds a sample where every treated unit has a control
// with identical covariates. Balance statistics on it are exactly zero.
func MirroredDataset(n int, covariates int, seed int64) *match.Dataset {
	rng := rand.New(rand.NewSource(seed))

	keys := make([]core.CovariateKey, covariates)
	for i := range keys {
		keys[i] = core.CovariateKey(fmt.Sprintf("x%d", i+1))
	}

	units := make([]match.Unit, 0, 2*n)
	for i := 0; i < n; i++ {
		covs := make(map[core.CovariateKey]float64, covariates)
		for _, key := range keys {
			covs[key] = math.Round(rng.NormFloat64()*100) / 100
		}
		mirror := make(map[core.CovariateKey]float64, covariates)
		for k, v := range covs {
			mirror[k] = v
		}
		units = append(units,
			match.Unit{ID: core.UnitID(fmt.Sprintf("t%03d", i+1)), Group: match.GroupTreated, Covariates: covs},
			match.Unit{ID: core.UnitID(fmt.Sprintf("c%03d", i+1)), Group: match.GroupControl, Covariates: mirror},
		)
	}

	ds, err := match.NewDataset(units, keys)
	if err != nil {
		panic(err)
	}
	return ds
}
