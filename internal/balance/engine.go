package balance

import (
	"context"
	"math"
	"sort"

	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"

	montastats "github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Engine computes per-term and aggregate balance diagnostics on the
// unweighted ("before") and weighted ("after") samples. Terms are
// independent given the weights, so they are computed concurrently
// with read-only access to the sample.
type Engine struct{}

// NewEngine creates a balance engine
func NewEngine() *Engine {
	return &Engine{}
}

// Request carries both samples and the term list
type Request struct {
	Dataset  *match.Dataset
	Formula  match.Formula
	Weights  match.Weights
	Estimand match.Estimand

	// Scores and Assignment feed the per-subclass breakdown when the
	// method stratifies; both may be nil.
	Scores     map[core.UnitID]float64
	Assignment *match.Assignment
}

// Compute evaluates every term of the formula, covariates and derived
// terms alike, before and after matching
func (e *Engine) Compute(ctx context.Context, req Request) (*balance.Table, error) {
	terms := req.Formula.Terms()
	rows := make([]balance.Statistic, len(terms))

	g, ctx := errgroup.WithContext(ctx)
	for i, term := range terms {
		i, term := i, term
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = e.termStatistic(req, term)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &balance.Table{
		Terms: rows,
		Sort:  balance.SortInput,
	}
	table.Aggregate = aggregate(rows)
	if req.Assignment != nil && req.Assignment.Count > 0 {
		table.Subclass = subclassRows(req)
	}
	return table, nil
}

// termStatistic computes one term's full before/after record
func (e *Engine) termStatistic(req Request, term match.Term) balance.Statistic {
	ds := req.Dataset

	var valsT, valsC, wT, wC []float64
	for i := 0; i < ds.Len(); i++ {
		u := ds.Unit(i)
		v := term.Eval(u)
		if u.Treated() {
			valsT = append(valsT, v)
			wT = append(wT, req.Weights[u.ID])
		} else {
			valsC = append(valsC, v)
			wC = append(wC, req.Weights[u.ID])
		}
	}

	ones := func(n int) []float64 {
		w := make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return w
	}

	row := balance.Statistic{
		Term:   term.Key,
		Binary: isBinary(valsT, valsC),
	}

	// Standardization factor always comes from the unmatched sample,
	// whichever sample's statistic is being reported
	denom := smdDenominator(req.Estimand, valsT, valsC)

	before := groupStats(valsT, ones(len(valsT)), valsC, ones(len(valsC)))
	after := groupStats(valsT, wT, valsC, wC)

	row.MeanDiffBefore = before.meanDiff
	row.MeanDiffAfter = after.meanDiff
	row.SMDBefore = before.meanDiff / denom
	row.SMDAfter = after.meanDiff / denom

	if row.Binary {
		row.VarRatioBefore = math.NaN()
		row.VarRatioAfter = math.NaN()
	} else {
		row.VarRatioBefore = before.varRatio
		row.VarRatioAfter = after.varRatio
	}

	row.ECDFMaxBefore, row.ECDFMeanBefore = ecdfDiff(valsT, ones(len(valsT)), valsC, ones(len(valsC)))
	row.ECDFMaxAfter, row.ECDFMeanAfter = ecdfDiff(valsT, wT, valsC, wC)

	row.SMDImprovement = balance.PercentImprovement(row.SMDBefore, row.SMDAfter)
	row.ECDFMaxImprovement = balance.PercentImprovement(row.ECDFMaxBefore, row.ECDFMaxAfter)
	return row
}

type moments struct {
	meanDiff float64
	varRatio float64
}

// groupStats computes weighted mean difference and variance ratio.
// Either group having zero total weight makes both undefined.
func groupStats(valsT, wT, valsC, wC []float64) moments {
	if totalWeight(wT) == 0 || totalWeight(wC) == 0 {
		return moments{meanDiff: math.NaN(), varRatio: math.NaN()}
	}
	meanT := stat.Mean(valsT, wT)
	meanC := stat.Mean(valsC, wC)
	varT := stat.Variance(valsT, wT)
	varC := stat.Variance(valsC, wC)
	return moments{
		meanDiff: meanT - meanC,
		varRatio: varT / varC,
	}
}

// smdDenominator is the unmatched-sample standardization factor:
// treated SD targeting the treated, control SD targeting the controls,
// pooled SD for the overall population
func smdDenominator(estimand match.Estimand, valsT, valsC []float64) float64 {
	sdT, _ := montastats.StandardDeviationSample(valsT)
	sdC, _ := montastats.StandardDeviationSample(valsC)

	var d float64
	switch estimand {
	case match.EstimandATC:
		d = sdC
	case match.EstimandATE:
		d = math.Sqrt((sdT*sdT + sdC*sdC) / 2)
	default:
		d = sdT
	}
	if d == 0 {
		return math.NaN()
	}
	return d
}

func totalWeight(w []float64) float64 {
	t := 0.0
	for _, v := range w {
		t += v
	}
	return t
}

func isBinary(valsT, valsC []float64) bool {
	seen := make(map[float64]struct{}, 3)
	for _, v := range valsT {
		seen[v] = struct{}{}
		if len(seen) > 2 {
			return false
		}
	}
	for _, v := range valsC {
		seen[v] = struct{}{}
		if len(seen) > 2 {
			return false
		}
	}
	return true
}

// aggregate finds the worst SMD and eCDF difference across all terms
func aggregate(rows []balance.Statistic) balance.Aggregate {
	agg := balance.Aggregate{}
	for _, r := range rows {
		if abs := math.Abs(r.SMDBefore); !math.IsNaN(abs) && abs > agg.MaxSMDBefore {
			agg.MaxSMDBefore = abs
			agg.MaxSMDTerm = r.Term
		}
		if abs := math.Abs(r.SMDAfter); !math.IsNaN(abs) && abs > agg.MaxSMDAfter {
			agg.MaxSMDAfter = abs
		}
		if !math.IsNaN(r.ECDFMaxBefore) && r.ECDFMaxBefore > agg.MaxECDFBefore {
			agg.MaxECDFBefore = r.ECDFMaxBefore
			agg.MaxECDFTerm = r.Term
		}
		if !math.IsNaN(r.ECDFMaxAfter) && r.ECDFMaxAfter > agg.MaxECDFAfter {
			agg.MaxECDFAfter = r.ECDFMaxAfter
		}
	}
	return agg
}

// subclassRows summarizes each stratum for the report
func subclassRows(req Request) []balance.SubclassRow {
	ds := req.Dataset
	byStratum := make(map[int]*balance.SubclassRow)
	scoreSum := make(map[int][2]float64)

	for id, strata := range req.Assignment.ByUnit {
		i := ds.Index(id)
		if i < 0 {
			continue
		}
		treated := ds.Unit(i).Treated()
		for _, s := range strata {
			row, ok := byStratum[s]
			if !ok {
				row = &balance.SubclassRow{Stratum: s}
				byStratum[s] = row
			}
			sums := scoreSum[s]
			if treated {
				row.Treated++
				sums[0] += req.Scores[id]
			} else {
				row.Control++
				sums[1] += req.Scores[id]
			}
			scoreSum[s] = sums
		}
	}

	out := make([]balance.SubclassRow, 0, len(byStratum))
	for s, row := range byStratum {
		if req.Scores != nil {
			if row.Treated > 0 {
				row.MeanScoreTrt = scoreSum[s][0] / float64(row.Treated)
			}
			if row.Control > 0 {
				row.MeanScoreCtl = scoreSum[s][1] / float64(row.Control)
			}
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stratum < out[j].Stratum })
	return out
}
