package solvers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/internal/testkit"
	"gomatch/ports"
)

func tupleDataset(t *testing.T) *match.Dataset {
	t.Helper()
	mk := func(id string, group match.Group, a, b float64) match.Unit {
		return match.Unit{
			ID:         core.UnitID(id),
			Group:      group,
			Covariates: map[core.CovariateKey]float64{"a": a, "b": b},
		}
	}
	ds, err := match.NewDataset([]match.Unit{
		mk("t1", match.GroupTreated, 1, 0),
		mk("t2", match.GroupTreated, 1, 0),
		mk("t3", match.GroupTreated, 2, 1),
		mk("t4", match.GroupTreated, 3, 1), // tuple with no controls
		mk("c1", match.GroupControl, 1, 0),
		mk("c2", match.GroupControl, 2, 1),
		mk("c3", match.GroupControl, 2, 1),
		mk("c4", match.GroupControl, 9, 9), // tuple with no treated
	}, []core.CovariateKey{"a", "b"})
	require.NoError(t, err)
	return ds
}

func uniformMatrix(ds *match.Dataset) *match.DistanceMatrix {
	scores := make(map[core.UnitID]float64, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		scores[ds.Unit(i).ID] = 0.5
	}
	return testkit.MatrixFromScores(ds, scores)
}

func TestExact_StrataShareIdenticalTuples(t *testing.T) {
	ds := tupleDataset(t)
	req := ports.SolveRequest{
		Dataset: ds,
		Matrix:  uniformMatrix(ds),
		Formula: match.NewFormula("a", "b"),
		Config:  match.DefaultConfig(),
	}

	a, err := (&ExactSolver{}).Solve(context.Background(), req)
	require.NoError(t, err)

	// within every stratum all members carry the same covariate tuple
	for stratum, members := range a.Members() {
		first := ds.Unit(ds.Index(members[0]))
		for _, id := range members[1:] {
			u := ds.Unit(ds.Index(id))
			assert.Equal(t, first.Covariates["a"], u.Covariates["a"], "stratum %d", stratum)
			assert.Equal(t, first.Covariates["b"], u.Covariates["b"], "stratum %d", stratum)
		}
	}

	// t1,t2,c1 share a tuple; t3,c2,c3 share another
	assert.Equal(t, a.StrataOf("t1"), a.StrataOf("t2"))
	assert.Equal(t, a.StrataOf("t1"), a.StrataOf("c1"))
	assert.Equal(t, a.StrataOf("t3"), a.StrataOf("c2"))
	assert.Equal(t, a.StrataOf("t3"), a.StrataOf("c3"))
	assert.NotEqual(t, a.StrataOf("t1"), a.StrataOf("t3"))

	// one-sided tuples stay unassigned
	assert.False(t, a.Assigned("t4"))
	assert.False(t, a.Assigned("c4"))
}

func TestExact_DistinguishesNearbyFloats(t *testing.T) {
	mk := func(id string, group match.Group, v float64) match.Unit {
		return match.Unit{ID: core.UnitID(id), Group: group, Covariates: map[core.CovariateKey]float64{"a": v}}
	}
	ds, err := match.NewDataset([]match.Unit{
		mk("t1", match.GroupTreated, 0.1),
		mk("c1", match.GroupControl, 0.1),
		mk("c2", match.GroupControl, 0.1+1e-15),
	}, []core.CovariateKey{"a"})
	require.NoError(t, err)

	req := ports.SolveRequest{
		Dataset: ds,
		Matrix:  uniformMatrix(ds),
		Formula: match.NewFormula("a"),
		Config:  match.DefaultConfig(),
	}
	a, err := (&ExactSolver{}).Solve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.StrataOf("t1"), a.StrataOf("c1"))
	assert.False(t, a.Assigned("c2"), "bit-different value must not share a stratum")
}
