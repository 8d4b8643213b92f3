package solvers

import (
	"fmt"
	"sort"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"
)

// Registry dispatches to one solver per matching method
type Registry struct {
	byMethod map[match.Method]ports.SolverPort
}

// NewRegistry creates a registry with all built-in strategies
func NewRegistry() *Registry {
	r := &Registry{byMethod: make(map[match.Method]ports.SolverPort)}
	for _, s := range []ports.SolverPort{
		&NoneSolver{},
		&NearestSolver{},
		&OptimalPairSolver{},
		&OptimalFullSolver{},
		&ExactSolver{},
		&CoarsenedExactSolver{},
		&SubclassSolver{},
	} {
		r.byMethod[s.Method()] = s
	}
	return r
}

// Get returns the solver for a method
func (r *Registry) Get(method match.Method) (ports.SolverPort, error) {
	s, ok := r.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownMethod, method)
	}
	return s, nil
}

// Methods lists registered methods, sorted
func (r *Registry) Methods() []match.Method {
	out := make([]match.Method, 0, len(r.byMethod))
	for m := range r.byMethod {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
