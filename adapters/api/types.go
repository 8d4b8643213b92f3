package api

import (
	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"
)

// MatchRequest is the JSON body of POST /api/match. Units carry their
// covariates inline; the formula lists model terms by covariate key.
type MatchRequest struct {
	Units      []match.Unit        `json:"units"`
	Covariates []core.CovariateKey `json:"covariates"`
	Formula    FormulaSpec         `json:"formula"`
	Config     match.Config        `json:"config"`
	Sort       balance.SortPolicy  `json:"sort,omitempty"`
}

// FormulaSpec is the wire form of a model formula
type FormulaSpec struct {
	Covariates   []core.CovariateKey `json:"covariates"`
	Squares      []core.CovariateKey `json:"squares,omitempty"`
	Interactions [][2]core.CovariateKey `json:"interactions,omitempty"`
}

// Build converts the spec into a domain formula. An empty covariate
// list means every dataset column.
func (s FormulaSpec) Build(ds *match.Dataset) match.Formula {
	keys := s.Covariates
	if len(keys) == 0 {
		keys = ds.Covariates
	}
	f := match.NewFormula(keys...)
	if len(s.Squares) > 0 {
		f = f.WithSquares(s.Squares...)
	}
	for _, pair := range s.Interactions {
		f = f.WithInteraction(pair[0], pair[1])
	}
	return f
}

// MatchResponse wraps a completed result
type MatchResponse struct {
	Result *match.Result `json:"result"`
}

// ListResponse is a page of stored results
type ListResponse struct {
	Results []*match.Result `json:"results"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}
