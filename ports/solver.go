package ports

import (
	"context"
	"math/rand"

	"gomatch/domain/match"
)

// SolveRequest is the shared input contract for every matching
// strategy: the filtered distance matrix plus the configuration knobs
// the strategy honors. RNG is only consulted by strategies with an
// explicitly random ordering policy.
type SolveRequest struct {
	Dataset *match.Dataset
	Matrix  *match.DistanceMatrix
	Formula match.Formula
	Config  match.Config
	RNG     *rand.Rand
}

// SolverPort is implemented once per matching method. Solvers are pure:
// same request, same assignment. They return raw assignments; validity
// normalization happens in the pipeline.
type SolverPort interface {
	Method() match.Method
	Solve(ctx context.Context, req SolveRequest) (*match.Assignment, error)
}
