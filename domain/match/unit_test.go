package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
)

func unitWith(id string, group Group, x float64) Unit {
	return Unit{
		ID:         core.UnitID(id),
		Group:      group,
		Covariates: map[core.CovariateKey]float64{"x1": x},
	}
}

func TestNewDataset_IndexesGroups(t *testing.T) {
	ds, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 1.0),
		unitWith("c1", GroupControl, 2.0),
		unitWith("t2", GroupTreated, 3.0),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, ds.Treated())
	assert.Equal(t, []int{1}, ds.Control())
	assert.Equal(t, 1, ds.Index("c1"))
	assert.Equal(t, -1, ds.Index("missing"))
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, ds.Column("x1"))
}

func TestNewDataset_RejectsDuplicateIDs(t *testing.T) {
	_, err := NewDataset([]Unit{
		unitWith("u1", GroupTreated, 1.0),
		unitWith("u1", GroupControl, 2.0),
	}, []core.CovariateKey{"x1"})
	assert.ErrorIs(t, err, core.ErrMalformedDataset)
}

func TestNewDataset_RejectsMissingCovariate(t *testing.T) {
	broken := Unit{ID: "c1", Group: GroupControl, Covariates: map[core.CovariateKey]float64{"x2": 1}}
	_, err := NewDataset([]Unit{unitWith("t1", GroupTreated, 1.0), broken}, []core.CovariateKey{"x1"})
	assert.ErrorIs(t, err, core.ErrMalformedDataset)
}

func TestNewDataset_RequiresBothGroups(t *testing.T) {
	_, err := NewDataset([]Unit{unitWith("t1", GroupTreated, 1.0)}, []core.CovariateKey{"x1"})
	assert.ErrorIs(t, err, core.ErrMissingCtrlGroup)

	_, err = NewDataset([]Unit{unitWith("c1", GroupControl, 1.0)}, []core.CovariateKey{"x1"})
	assert.ErrorIs(t, err, core.ErrMissingTreatGroup)
}

func TestDataset_Binary(t *testing.T) {
	ds, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 0),
		unitWith("c1", GroupControl, 1),
		unitWith("c2", GroupControl, 0),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	assert.True(t, ds.Binary("x1"))

	ds2, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 0),
		unitWith("c1", GroupControl, 1),
		unitWith("c2", GroupControl, 2),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	assert.False(t, ds2.Binary("x1"))
}
