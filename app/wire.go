package app

import (
	"gomatch/adapters/distance"
	"gomatch/adapters/solvers"
	balanceengine "gomatch/internal/balance"
	"gomatch/internal/report"
	"gomatch/internal/rng"
)

// NewDefaultMatchService wires the service with the standard adapters:
// gonum-backed distances, the full solver registry and a seeded RNG.
func NewDefaultMatchService() *MatchService {
	return NewMatchService(
		distance.NewProvider(),
		solvers.NewRegistry(),
		balanceengine.NewEngine(),
		report.NewAssembler(),
		rng.NewAdapter(),
	)
}
