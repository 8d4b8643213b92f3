package match

import (
	"fmt"

	"gomatch/domain/core"
)

// TermKind distinguishes raw covariates from derived balance terms
type TermKind string

const (
	TermCovariate   TermKind = "covariate"
	TermSquare      TermKind = "square"
	TermInteraction TermKind = "interaction"
)

// Term is one column of the design: a covariate or a derived
// transformation of one or two covariates.
type Term struct {
	Key  core.CovariateKey `json:"key"`
	Kind TermKind          `json:"kind"`
	A    core.CovariateKey `json:"a,omitempty"`
	B    core.CovariateKey `json:"b,omitempty"`
}

// Eval computes the term's value for one unit
func (t Term) Eval(u *Unit) float64 {
	switch t.Kind {
	case TermSquare:
		v := u.Covariates[t.A]
		return v * v
	case TermInteraction:
		return u.Covariates[t.A] * u.Covariates[t.B]
	default:
		return u.Covariates[t.Key]
	}
}

// Formula selects which covariates participate in scoring and balance,
// optionally extended with derived terms (squares, interactions) that
// only the balance engine evaluates.
type Formula struct {
	Covariates []core.CovariateKey `json:"covariates"`
	Derived    []Term              `json:"derived,omitempty"`
}

// NewFormula builds a formula over the named covariates
func NewFormula(covariates ...core.CovariateKey) Formula {
	return Formula{Covariates: covariates}
}

// WithSquares appends squared terms for the named covariates
func (f Formula) WithSquares(keys ...core.CovariateKey) Formula {
	for _, k := range keys {
		f.Derived = append(f.Derived, Term{
			Key:  core.CovariateKey(fmt.Sprintf("%s^2", k)),
			Kind: TermSquare,
			A:    k,
		})
	}
	return f
}

// WithInteraction appends the product term a*b
func (f Formula) WithInteraction(a, b core.CovariateKey) Formula {
	f.Derived = append(f.Derived, Term{
		Key:  core.CovariateKey(fmt.Sprintf("%s:%s", a, b)),
		Kind: TermInteraction,
		A:    a,
		B:    b,
	})
	return f
}

// Terms returns raw covariate terms followed by derived terms,
// preserving input order
func (f Formula) Terms() []Term {
	terms := make([]Term, 0, len(f.Covariates)+len(f.Derived))
	for _, k := range f.Covariates {
		terms = append(terms, Term{Key: k, Kind: TermCovariate})
	}
	terms = append(terms, f.Derived...)
	return terms
}

// Validate checks every referenced covariate exists in the dataset
func (f Formula) Validate(ds *Dataset) error {
	if len(f.Covariates) == 0 {
		return core.NewConfigError("formula", "at least one covariate required")
	}
	for _, k := range f.Covariates {
		if !ds.HasCovariate(k) {
			return fmt.Errorf("%w: %s", core.ErrUnknownCovariate, k)
		}
	}
	for _, t := range f.Derived {
		for _, k := range []core.CovariateKey{t.A, t.B} {
			if k != "" && !ds.HasCovariate(k) {
				return fmt.Errorf("%w: %s in derived term %s", core.ErrUnknownCovariate, k, t.Key)
			}
		}
	}
	return nil
}
