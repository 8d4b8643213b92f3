package solvers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"
)

func TestCoarsened_CutpointsGroupNearbyValues(t *testing.T) {
	mk := func(id string, group match.Group, age float64) match.Unit {
		return match.Unit{ID: core.UnitID(id), Group: group, Covariates: map[core.CovariateKey]float64{"age": age}}
	}
	ds, err := match.NewDataset([]match.Unit{
		mk("t1", match.GroupTreated, 23),
		mk("t2", match.GroupTreated, 41),
		mk("c1", match.GroupControl, 27),
		mk("c2", match.GroupControl, 44),
		mk("c3", match.GroupControl, 67),
	}, []core.CovariateKey{"age"})
	require.NoError(t, err)

	cfg := match.DefaultConfig()
	cfg.Method = match.MethodCoarsenedExact
	cfg.Cutpoints = map[core.CovariateKey][]float64{"age": {30, 50}}

	req := ports.SolveRequest{
		Dataset: ds,
		Matrix:  uniformMatrix(ds),
		Formula: match.NewFormula("age"),
		Config:  cfg,
	}
	a, err := (&CoarsenedExactSolver{}).Solve(context.Background(), req)
	require.NoError(t, err)

	// [<30]: t1+c1, [30,50): t2+c2, [>=50]: c3 alone
	assert.Equal(t, a.StrataOf("t1"), a.StrataOf("c1"))
	assert.Equal(t, a.StrataOf("t2"), a.StrataOf("c2"))
	assert.NotEqual(t, a.StrataOf("t1"), a.StrataOf("t2"))
	assert.False(t, a.Assigned("c3"))
}

func TestCoarsened_DefaultBinsAreDeterministic(t *testing.T) {
	mk := func(id string, group match.Group, v float64) match.Unit {
		return match.Unit{ID: core.UnitID(id), Group: group, Covariates: map[core.CovariateKey]float64{"v": v}}
	}
	units := []match.Unit{
		mk("t1", match.GroupTreated, 0.1),
		mk("t2", match.GroupTreated, 0.9),
		mk("c1", match.GroupControl, 0.15),
		mk("c2", match.GroupControl, 0.85),
	}
	ds, err := match.NewDataset(units, []core.CovariateKey{"v"})
	require.NoError(t, err)

	cfg := match.DefaultConfig()
	cfg.Method = match.MethodCoarsenedExact

	req := ports.SolveRequest{Dataset: ds, Matrix: uniformMatrix(ds), Formula: match.NewFormula("v"), Config: cfg}

	a1, err := (&CoarsenedExactSolver{}).Solve(context.Background(), req)
	require.NoError(t, err)
	a2, err := (&CoarsenedExactSolver{}).Solve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a1.ByUnit, a2.ByUnit)
}

func TestSturges(t *testing.T) {
	assert.Equal(t, 1, sturges(1))
	assert.Equal(t, 8, sturges(100)) // ceil(log2(100)) + 1
	assert.Equal(t, 11, sturges(1000))
}
