package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

func pairedDataset(t *testing.T) *match.Dataset {
	t.Helper()
	mk := func(id string, group match.Group) match.Unit {
		return match.Unit{
			ID:         core.UnitID(id),
			Group:      group,
			Covariates: map[core.CovariateKey]float64{"x": 1},
		}
	}
	ds, err := match.NewDataset([]match.Unit{
		mk("t1", match.GroupTreated),
		mk("t2", match.GroupTreated),
		mk("c1", match.GroupControl),
		mk("c2", match.GroupControl),
		mk("c3", match.GroupControl),
	}, []core.CovariateKey{"x"})
	require.NoError(t, err)
	return ds
}

func TestDerive_PairWeightsAreUnitOrZero(t *testing.T) {
	ds := pairedDataset(t)
	a := match.NewAssignment()
	a.Assign("t1", 0)
	a.Assign("c1", 0)
	a.Assign("t2", 1)
	a.Assign("c2", 1)

	cfg := match.DefaultConfig()
	w, warnings := Derive(ds, a, cfg)
	require.Empty(t, warnings)

	assert.Equal(t, 1.0, w["t1"])
	assert.Equal(t, 1.0, w["t2"])
	assert.Equal(t, 1.0, w["c1"])
	assert.Equal(t, 1.0, w["c2"])
	assert.Equal(t, 0.0, w["c3"])
}

func TestDerive_ReplacementControlsCarryFrequencyWeights(t *testing.T) {
	ds := pairedDataset(t)
	a := match.NewAssignment()
	a.Assign("t1", 0)
	a.Assign("c1", 0)
	a.Assign("t2", 1)
	a.Assign("c1", 1)

	cfg := match.DefaultConfig()
	cfg.Replace = true
	w, warnings := Derive(ds, a, cfg)
	require.Empty(t, warnings)

	assert.Equal(t, 2.0, w["c1"], "control reused twice carries frequency weight 2")
	assert.Equal(t, 1.0, w["t1"])
	assert.Equal(t, 1.0, w["t2"])
	assert.Equal(t, 0.0, w["c2"])
}

// subclassAssignment puts t1,c1,c2 in stratum 0 and t2,c3 in stratum 1
func subclassAssignment() *match.Assignment {
	a := match.NewAssignment()
	a.Assign("t1", 0)
	a.Assign("c1", 0)
	a.Assign("c2", 0)
	a.Assign("t2", 1)
	a.Assign("c3", 1)
	return a
}

func TestDerive_ATTWeightsOddsOfTreatment(t *testing.T) {
	ds := pairedDataset(t)
	cfg := match.DefaultConfig()
	cfg.Method = match.MethodSubclass
	cfg.Estimand = match.EstimandATT

	w, warnings := Derive(ds, subclassAssignment(), cfg)
	require.Empty(t, warnings)

	assert.Equal(t, 1.0, w["t1"])
	assert.Equal(t, 1.0, w["t2"])
	// stratum 0: p = 1/3, controls get p/(1-p) = 1/2
	assert.InDelta(t, 0.5, w["c1"], 1e-12)
	assert.InDelta(t, 0.5, w["c2"], 1e-12)
	// stratum 1: p = 1/2, control gets 1
	assert.InDelta(t, 1.0, w["c3"], 1e-12)
}

func TestDerive_ATEWeightsBalanceStratumMass(t *testing.T) {
	ds := pairedDataset(t)
	cfg := match.DefaultConfig()
	cfg.Method = match.MethodSubclass
	cfg.Estimand = match.EstimandATE

	a := subclassAssignment()
	w, warnings := Derive(ds, a, cfg)
	require.Empty(t, warnings)

	// per stratum, treated mass equals control mass equals stratum size
	for _, members := range a.Members() {
		var treatedMass, controlMass float64
		for _, id := range members {
			if id[0] == 't' {
				treatedMass += w[id]
			} else {
				controlMass += w[id]
			}
		}
		assert.InDelta(t, float64(len(members)), treatedMass, 1e-12)
		assert.InDelta(t, float64(len(members)), controlMass, 1e-12)
	}
}

func TestDerive_ATCWeightsOddsOfControl(t *testing.T) {
	ds := pairedDataset(t)
	cfg := match.DefaultConfig()
	cfg.Method = match.MethodSubclass
	cfg.Estimand = match.EstimandATC

	w, warnings := Derive(ds, subclassAssignment(), cfg)
	require.Empty(t, warnings)

	assert.Equal(t, 1.0, w["c1"])
	assert.Equal(t, 1.0, w["c2"])
	assert.Equal(t, 1.0, w["c3"])
	// stratum 0: p = 1/3, treated gets (1-p)/p = 2
	assert.InDelta(t, 2.0, w["t1"], 1e-12)
	// stratum 1: p = 1/2, treated gets 1
	assert.InDelta(t, 1.0, w["t2"], 1e-12)
}

func TestDerive_DegenerateStratumExcludedWithWarning(t *testing.T) {
	ds := pairedDataset(t)
	cfg := match.DefaultConfig()
	cfg.Method = match.MethodSubclass

	a := match.NewAssignment()
	a.Assign("t1", 0)
	a.Assign("c1", 0)
	a.Assign("c2", 1) // control-only stratum, as if normalization was skipped
	a.Assign("c3", 1)

	w, warnings := Derive(ds, a, cfg)
	require.Len(t, warnings, 1)
	assert.Equal(t, match.WarningDegenerateStratum, warnings[0].Code)
	assert.Equal(t, 1, warnings[0].Stratum)

	assert.Equal(t, 0.0, w["c2"])
	assert.Equal(t, 0.0, w["c3"])
	assert.Equal(t, 1.0, w["t1"])
	assert.InDelta(t, 1.0, w["c1"], 1e-12)
}

func TestStratumWeight(t *testing.T) {
	w, err := StratumWeight(match.EstimandATT, false, 1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w, 1e-12)

	w, err = StratumWeight(match.EstimandATE, true, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, w, 1e-12)

	_, err = StratumWeight(match.EstimandATT, false, 0, 3)
	require.Error(t, err)
	assert.True(t, core.IsDegenerateStratumError(err))

	_, err = StratumWeight(match.EstimandATT, true, 3, 3)
	require.Error(t, err)
	assert.True(t, core.IsDegenerateStratumError(err))
}
