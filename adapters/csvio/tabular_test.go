package csvio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

func TestBuildDataset_NumericColumns(t *testing.T) {
	headers := []string{"id", "treatment", "age", "income", "outcome"}
	rows := [][]string{
		{"u1", "1", "34", "51000", "2.5"},
		{"u2", "0", "29", "43000", "1.1"},
	}

	ds, err := BuildDataset(headers, rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []core.CovariateKey{"age", "income"}, ds.Covariates)

	u := ds.Unit(ds.Index("u1"))
	assert.Equal(t, match.GroupTreated, u.Group)
	assert.Equal(t, 34.0, u.Covariates["age"])
	assert.Equal(t, 2.5, u.Outcome)

	c := ds.Unit(ds.Index("u2"))
	assert.Equal(t, match.GroupControl, c.Group)
}

func TestBuildDataset_LevelCodesCategoricalColumns(t *testing.T) {
	headers := []string{"id", "treatment", "region"}
	rows := [][]string{
		{"u1", "1", "west"},
		{"u2", "0", "east"},
		{"u3", "0", "north"},
		{"u4", "1", "east"},
	}

	ds, err := BuildDataset(headers, rows, DefaultOptions())
	require.NoError(t, err)

	// east=0, north=1, west=2 by lexicographic order
	assert.Equal(t, 2.0, ds.Unit(ds.Index("u1")).Covariates["region"])
	assert.Equal(t, 0.0, ds.Unit(ds.Index("u2")).Covariates["region"])
	assert.Equal(t, 1.0, ds.Unit(ds.Index("u3")).Covariates["region"])
	assert.Equal(t, 0.0, ds.Unit(ds.Index("u4")).Covariates["region"])
}

func TestBuildDataset_TreatmentAliases(t *testing.T) {
	headers := []string{"treatment", "x"}
	rows := [][]string{
		{"treated", "1"},
		{"TRUE", "2"},
		{"yes", "3"},
		{"control", "4"},
		{"f", "5"},
		{"0", "6"},
	}

	ds, err := BuildDataset(headers, rows, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ds.Treated(), 3)
	assert.Len(t, ds.Control(), 3)
}

func TestBuildDataset_RowNumberFallbackIDs(t *testing.T) {
	headers := []string{"treatment", "x"}
	rows := [][]string{
		{"1", "10"},
		{"0", "20"},
	}

	ds, err := BuildDataset(headers, rows, DefaultOptions())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ds.Index("1"), 0)
	assert.GreaterOrEqual(t, ds.Index("2"), 0)
}

func TestBuildDataset_MissingTreatmentColumn(t *testing.T) {
	_, err := BuildDataset([]string{"id", "x"}, [][]string{{"u1", "1"}}, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedDataset)
}

func TestBuildDataset_BadTreatmentValue(t *testing.T) {
	headers := []string{"treatment", "x"}
	rows := [][]string{{"maybe", "1"}}

	_, err := BuildDataset(headers, rows, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedDataset)
}

func TestBuildDataset_CustomColumnNames(t *testing.T) {
	opts := Options{IDColumn: "subject", TreatmentColumn: "arm", OutcomeColumn: "y"}
	headers := []string{"subject", "arm", "dose", "y"}
	rows := [][]string{
		{"s1", "1", "5", "0.9"},
		{"s2", "0", "3", "0.4"},
	}

	ds, err := BuildDataset(headers, rows, opts)
	require.NoError(t, err)
	assert.Equal(t, []core.CovariateKey{"dose"}, ds.Covariates)
	assert.GreaterOrEqual(t, ds.Index("s1"), 0)
}

func TestReader_RoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	content := "id,treatment,age\nu1,1,40\nu2,0,35\nu3,0,38\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ds, err := NewReader(path, DefaultOptions()).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Len(t, ds.Treated(), 1)
}

func TestReader_HeaderOnlyFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,treatment,age\n"), 0o644))

	_, err := NewReader(path, DefaultOptions()).Read(context.Background())
	assert.Error(t, err)
}
