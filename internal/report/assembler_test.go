package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/balance"
)

func sampleTable() *balance.Table {
	return &balance.Table{
		Terms: []balance.Statistic{
			{Term: "income", SMDBefore: 0.40, SMDAfter: 0.02},
			{Term: "age", SMDBefore: -0.90, SMDAfter: 0.10},
			{Term: "flag", SMDBefore: math.NaN(), SMDAfter: math.NaN()},
			{Term: "edu", SMDBefore: 0.15, SMDAfter: -0.25},
		},
		Sort: balance.SortInput,
	}
}

func termOrder(t *balance.Table) []string {
	out := make([]string, len(t.Terms))
	for i, row := range t.Terms {
		out[i] = string(row.Term)
	}
	return out
}

func TestSorted_ByPreMatchSMD(t *testing.T) {
	out := NewAssembler().Sorted(sampleTable(), balance.SortSMDBefore)
	assert.Equal(t, []string{"age", "income", "edu", "flag"}, termOrder(out))
	assert.Equal(t, balance.SortSMDBefore, out.Sort)
}

func TestSorted_ByPostMatchSMD(t *testing.T) {
	out := NewAssembler().Sorted(sampleTable(), balance.SortSMDAfter)
	assert.Equal(t, []string{"edu", "age", "income", "flag"}, termOrder(out))
}

func TestSorted_Alphabetical(t *testing.T) {
	out := NewAssembler().Sorted(sampleTable(), balance.SortAlpha)
	assert.Equal(t, []string{"age", "edu", "flag", "income"}, termOrder(out))
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	in := sampleTable()
	_ = NewAssembler().Sorted(in, balance.SortAlpha)
	assert.Equal(t, []string{"income", "age", "flag", "edu"}, termOrder(in))
	assert.Equal(t, balance.SortInput, in.Sort)
}

func TestSelect_KeepsOnlyNamedTerms(t *testing.T) {
	out := NewAssembler().Select(sampleTable(), map[string]bool{"age": true, "edu": true})
	require.Len(t, out.Terms, 2)
	assert.Equal(t, []string{"age", "edu"}, termOrder(out))
}
