package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
)

func TestAssignment_Normalize(t *testing.T) {
	ds, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 1),
		unitWith("t2", GroupTreated, 2),
		unitWith("c1", GroupControl, 1),
		unitWith("c2", GroupControl, 2),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	a := NewAssignment()
	a.Assign("t1", 0) // valid: t1 + c1
	a.Assign("c1", 0)
	a.Assign("t2", 1) // invalid: treated only
	a.Assign("c2", 2) // invalid: control only

	warnings := a.Normalize(ds)

	assert.Equal(t, 1, a.Count)
	assert.Equal(t, []int{0}, a.StrataOf("t1"))
	assert.Equal(t, []int{0}, a.StrataOf("c1"))
	assert.False(t, a.Assigned("t2"))
	assert.False(t, a.Assigned("c2"))

	require.Len(t, warnings, 2)
	assert.Equal(t, WarningInfeasibleAssignment, warnings[0].Code)
	assert.Equal(t, core.UnitID("c2"), warnings[0].UnitID)
	assert.Equal(t, core.UnitID("t2"), warnings[1].UnitID)
}

func TestAssignment_NormalizeRenumbersCompactly(t *testing.T) {
	ds, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 1),
		unitWith("t2", GroupTreated, 2),
		unitWith("c1", GroupControl, 1),
		unitWith("c2", GroupControl, 2),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	a := NewAssignment()
	a.Assign("t1", 0)
	a.Assign("c1", 0)
	a.Assign("t2", 5)
	a.Assign("c2", 5)

	warnings := a.Normalize(ds)

	assert.Empty(t, warnings)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, []int{1}, a.StrataOf("t2"))
	assert.Equal(t, []int{1}, a.StrataOf("c2"))
}

func TestAssignment_MembersSorted(t *testing.T) {
	a := NewAssignment()
	a.Assign("c2", 0)
	a.Assign("t1", 0)
	a.Assign("c1", 0)

	members := a.Members()
	assert.Equal(t, []core.UnitID{"c1", "c2", "t1"}, members[0])
}
