package app

import (
	"context"
	"sort"
	"time"

	"gomatch/adapters/solvers"
	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"
	balanceengine "gomatch/internal/balance"
	"gomatch/internal/constraints"
	"gomatch/internal/report"
	"gomatch/internal/weights"
	"gomatch/ports"
)

// MatchService runs the full pipeline: distances, constraint
// filtering, assignment, weights, balance, report. Every stage is a
// pure function of (dataset, formula, config, seed); the service only
// sequences them and accumulates the result record.
type MatchService struct {
	distance  ports.DistancePort
	registry  *solvers.Registry
	engine    *balanceengine.Engine
	assembler *report.Assembler
	rng       ports.RNGPort
}

// NewMatchService wires the pipeline
func NewMatchService(distance ports.DistancePort, registry *solvers.Registry, engine *balanceengine.Engine, assembler *report.Assembler, rng ports.RNGPort) *MatchService {
	return &MatchService{
		distance:  distance,
		registry:  registry,
		engine:    engine,
		assembler: assembler,
		rng:       rng,
	}
}

// Match executes one matching run
func (s *MatchService) Match(ctx context.Context, ds *match.Dataset, formula match.Formula, cfg match.Config) (*match.Result, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := formula.Validate(ds); err != nil {
		return nil, err
	}

	matrix, err := s.distance.Distances(ctx, ds, formula, cfg)
	if err != nil {
		return nil, err
	}

	filtered, err := constraints.Apply(ds, matrix, cfg)
	if err != nil {
		return nil, err
	}

	solver, err := s.registry.Get(cfg.Method)
	if err != nil {
		return nil, err
	}

	stream, err := s.rng.SeededStream(ctx, "solver.order", cfg.Seed)
	if err != nil {
		return nil, err
	}

	assignment, err := solver.Solve(ctx, ports.SolveRequest{
		Dataset: ds,
		Matrix:  filtered.Matrix,
		Formula: formula,
		Config:  cfg,
		RNG:     stream,
	})
	if err != nil {
		return nil, err
	}

	warnings := assignment.Normalize(ds)
	warnings = append(warnings, unassignedTreatedWarnings(ds, assignment, filtered)...)

	w, weightWarnings := weights.Derive(ds, assignment, cfg)
	warnings = append(warnings, weightWarnings...)

	if filtered.EstimandShifted {
		warnings = append(warnings, match.Warning{
			Code:   match.WarningEstimandShift,
			Detail: "treated units discarded by common support; ATT now targets the retained treated population",
		})
	}

	table, err := s.engine.Compute(ctx, balanceengine.Request{
		Dataset:    ds,
		Formula:    formula,
		Weights:    w,
		Estimand:   cfg.Estimand,
		Scores:     filtered.Matrix.Scores,
		Assignment: assignment,
	})
	if err != nil {
		return nil, err
	}

	result := &match.Result{
		ID:              core.ResultID(core.NewID()),
		Config:          cfg,
		Formula:         formula,
		Scores:          filtered.Matrix.Scores,
		Assignment:      assignment,
		Weights:         w,
		Discarded:       filtered.Discarded,
		EstimandShifted: filtered.EstimandShifted,
		Warnings:        warnings,
		Balance:         table,
		Sizes:           sampleSizes(ds, assignment, filtered),
		TotalDistance:   filtered.Matrix.TotalAssigned(ds, assignment),
		Seed:            cfg.Seed,
		RuntimeMs:       time.Since(started).Milliseconds(),
		CreatedAt:       core.Now(),
	}
	return result, nil
}

// SortedBalance reorders a result's balance table per policy
func (s *MatchService) SortedBalance(result *match.Result, policy balance.SortPolicy) *balance.Table {
	if result.Balance == nil {
		return nil
	}
	return s.assembler.Sorted(result.Balance, policy)
}

// unassignedTreatedWarnings records treated units that had no feasible
// match under the configured constraints. They are annotations, not
// failures; the partial result remains meaningful.
func unassignedTreatedWarnings(ds *match.Dataset, a *match.Assignment, filtered *constraints.FilterResult) []match.Warning {
	discarded := make(map[core.UnitID]bool, len(filtered.Discarded))
	for _, id := range filtered.Discarded {
		discarded[id] = true
	}

	var out []match.Warning
	for _, i := range ds.Treated() {
		id := ds.Unit(i).ID
		if discarded[id] || a.Assigned(id) {
			continue
		}
		out = append(out, match.Warning{
			Code:   match.WarningInfeasibleAssignment,
			UnitID: id,
			Detail: "no feasible control under current constraints",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

// sampleSizes tallies both groups through the pipeline stages
func sampleSizes(ds *match.Dataset, a *match.Assignment, filtered *constraints.FilterResult) match.SampleSizes {
	discarded := make(map[core.UnitID]bool, len(filtered.Discarded))
	for _, id := range filtered.Discarded {
		discarded[id] = true
	}

	tally := func(indices []int) match.GroupSizes {
		g := match.GroupSizes{All: len(indices)}
		for _, i := range indices {
			id := ds.Unit(i).ID
			switch {
			case discarded[id]:
				g.Discarded++
			case a.Assigned(id):
				g.Matched++
			default:
				g.Unmatched++
			}
		}
		return g
	}

	return match.SampleSizes{
		Treated: tally(ds.Treated()),
		Control: tally(ds.Control()),
	}
}
