package solvers

import (
	"context"

	"gomatch/domain/match"
	"gomatch/ports"
)

// NoneSolver performs no matching: every candidate unit lands in a
// single stratum so balance can be evaluated on the raw sample with
// unit weights.
type NoneSolver struct{}

func (s *NoneSolver) Method() match.Method { return match.MethodNone }

func (s *NoneSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	assignment := match.NewAssignment()
	for _, i := range candidateIdx(req.Matrix, true) {
		assignment.Assign(req.Dataset.Unit(i).ID, 0)
	}
	for _, i := range candidateIdx(req.Matrix, false) {
		assignment.Assign(req.Dataset.Unit(i).ID, 0)
	}
	return assignment, nil
}
