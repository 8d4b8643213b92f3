package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomatch/domain/core"
)

func TestFormula_TermsPreserveOrder(t *testing.T) {
	f := NewFormula("age", "income").
		WithSquares("age").
		WithInteraction("age", "income")

	terms := f.Terms()
	require.Len(t, terms, 4)
	assert.Equal(t, core.CovariateKey("age"), terms[0].Key)
	assert.Equal(t, core.CovariateKey("income"), terms[1].Key)
	assert.Equal(t, core.CovariateKey("age^2"), terms[2].Key)
	assert.Equal(t, core.CovariateKey("age:income"), terms[3].Key)
}

func TestTerm_Eval(t *testing.T) {
	u := &Unit{Covariates: map[core.CovariateKey]float64{"age": 3, "income": 4}}

	f := NewFormula("age").WithSquares("age").WithInteraction("age", "income")
	terms := f.Terms()

	assert.Equal(t, 3.0, terms[0].Eval(u))
	assert.Equal(t, 9.0, terms[1].Eval(u))
	assert.Equal(t, 12.0, terms[2].Eval(u))
}

func TestFormula_ValidateUnknownCovariate(t *testing.T) {
	ds, err := NewDataset([]Unit{
		unitWith("t1", GroupTreated, 1),
		unitWith("c1", GroupControl, 2),
	}, []core.CovariateKey{"x1"})
	require.NoError(t, err)

	assert.NoError(t, NewFormula("x1").Validate(ds))
	assert.ErrorIs(t, NewFormula("x9").Validate(ds), core.ErrUnknownCovariate)
	assert.ErrorIs(t, NewFormula("x1").WithSquares("x9").Validate(ds), core.ErrUnknownCovariate)
	assert.ErrorIs(t, NewFormula().Validate(ds), core.ErrInvalidConfig)
}
