package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/internal/testkit"
)

func scoredDataset(t *testing.T) (*match.Dataset, map[core.UnitID]float64) {
	t.Helper()
	scores := map[core.UnitID]float64{
		"t1": 0.90, "t2": 0.60, "t3": 0.30,
		"c1": 0.85, "c2": 0.55, "c3": 0.10,
	}
	units := make([]match.Unit, 0, len(scores))
	for id, s := range scores {
		group := match.GroupControl
		if id[0] == 't' {
			group = match.GroupTreated
		}
		units = append(units, match.Unit{
			ID:         id,
			Group:      group,
			Covariates: map[core.CovariateKey]float64{"x1": s},
		})
	}
	ds, err := match.NewDataset(units, []core.CovariateKey{"x1"})
	require.NoError(t, err)
	return ds, scores
}

func TestApply_CaliperIsStrict(t *testing.T) {
	ds, scores := scoredDataset(t)
	m := testkit.MatrixFromScores(ds, scores)

	cfg := match.DefaultConfig()
	cfg.Caliper = 0.05

	res, err := Apply(ds, m, cfg)
	require.NoError(t, err)

	for row, tIdx := range res.Matrix.TreatedIdx {
		for col, cIdx := range res.Matrix.ControlIdx {
			gap := m.Dist[row][col]
			feasible := res.Matrix.Feasible(row, col)
			if gap > 0.05 {
				assert.False(t, feasible, "pair %s-%s gap %f", ds.Unit(tIdx).ID, ds.Unit(cIdx).ID, gap)
			} else {
				assert.True(t, feasible, "pair %s-%s gap %f", ds.Unit(tIdx).ID, ds.Unit(cIdx).ID, gap)
			}
		}
	}
	assert.Empty(t, res.Discarded)
	assert.False(t, res.EstimandShifted)
}

func TestApply_CommonSupportShiftsEstimand(t *testing.T) {
	ds, scores := scoredDataset(t)
	m := testkit.MatrixFromScores(ds, scores)

	cfg := match.DefaultConfig()
	cfg.Discard = match.DiscardBoth

	res, err := Apply(ds, m, cfg)
	require.NoError(t, err)

	// t1 (0.90) above control max 0.85; c3 (0.10) below treated min 0.30
	assert.ElementsMatch(t, []core.UnitID{"t1", "c3"}, res.Discarded)
	assert.True(t, res.EstimandShifted)

	row := rowOf(t, ds, res.Matrix.TreatedIdx, "t1")
	for col := range res.Matrix.ControlIdx {
		assert.False(t, res.Matrix.Feasible(row, col))
	}
}

func TestApply_CommonSupportRequiresScores(t *testing.T) {
	ds, scores := scoredDataset(t)
	m := testkit.MatrixFromScores(ds, scores)
	m.Scores = nil

	cfg := match.DefaultConfig()
	cfg.Discard = match.DiscardTreated

	_, err := Apply(ds, m, cfg)
	assert.True(t, core.IsConfigError(err))
}

func TestApply_ExactPruning(t *testing.T) {
	units := []match.Unit{
		{ID: "t1", Group: match.GroupTreated, Covariates: map[core.CovariateKey]float64{"x1": 0.5, "site": 1}},
		{ID: "c1", Group: match.GroupControl, Covariates: map[core.CovariateKey]float64{"x1": 0.5, "site": 1}},
		{ID: "c2", Group: match.GroupControl, Covariates: map[core.CovariateKey]float64{"x1": 0.5, "site": 2}},
	}
	ds, err := match.NewDataset(units, []core.CovariateKey{"x1", "site"})
	require.NoError(t, err)

	m := testkit.MatrixFromScores(ds, map[core.UnitID]float64{"t1": 0.5, "c1": 0.5, "c2": 0.5})

	cfg := match.DefaultConfig()
	cfg.Exact = []core.CovariateKey{"site"}

	res, err := Apply(ds, m, cfg)
	require.NoError(t, err)

	row := rowOf(t, ds, res.Matrix.TreatedIdx, "t1")
	assert.True(t, res.Matrix.Feasible(row, colOf(t, ds, res.Matrix.ControlIdx, "c1")))
	assert.False(t, res.Matrix.Feasible(row, colOf(t, ds, res.Matrix.ControlIdx, "c2")))
}

func TestApply_CovariateCaliper(t *testing.T) {
	ds, scores := scoredDataset(t)
	m := testkit.MatrixFromScores(ds, scores)

	cfg := match.DefaultConfig()
	cfg.CovariateCalipers = map[core.CovariateKey]float64{"x1": 0.10}

	res, err := Apply(ds, m, cfg)
	require.NoError(t, err)

	row := rowOf(t, ds, res.Matrix.TreatedIdx, "t2") // x1 = 0.60
	assert.True(t, res.Matrix.Feasible(row, colOf(t, ds, res.Matrix.ControlIdx, "c2")))  // 0.55
	assert.False(t, res.Matrix.Feasible(row, colOf(t, ds, res.Matrix.ControlIdx, "c1"))) // 0.85
}

func rowOf(t *testing.T, ds *match.Dataset, idx []int, id core.UnitID) int {
	t.Helper()
	for i, u := range idx {
		if ds.Unit(u).ID == id {
			return i
		}
	}
	t.Fatalf("unit %s not found", id)
	return -1
}

func colOf(t *testing.T, ds *match.Dataset, idx []int, id core.UnitID) int {
	t.Helper()
	return rowOf(t, ds, idx, id)
}
