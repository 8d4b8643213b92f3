package report

import (
	"math"
	"sort"

	"gomatch/domain/balance"
)

// Assembler packages balance statistics for external rendering. It
// reorders and selects; it never recomputes a statistic.
type Assembler struct{}

// NewAssembler creates a report assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Sorted returns a copy of the table with terms arranged per policy.
// NaN statistics sort last so undefined rows never bury real ones.
func (a *Assembler) Sorted(t *balance.Table, policy balance.SortPolicy) *balance.Table {
	out := &balance.Table{
		Terms:     append([]balance.Statistic(nil), t.Terms...),
		Aggregate: t.Aggregate,
		Subclass:  append([]balance.SubclassRow(nil), t.Subclass...),
		Sort:      policy,
	}

	switch policy {
	case balance.SortAlpha:
		sort.SliceStable(out.Terms, func(i, j int) bool {
			return out.Terms[i].Term < out.Terms[j].Term
		})
	case balance.SortSMDBefore:
		sort.SliceStable(out.Terms, func(i, j int) bool {
			return nanLast(math.Abs(out.Terms[i].SMDBefore)) > nanLast(math.Abs(out.Terms[j].SMDBefore))
		})
	case balance.SortSMDAfter:
		sort.SliceStable(out.Terms, func(i, j int) bool {
			return nanLast(math.Abs(out.Terms[i].SMDAfter)) > nanLast(math.Abs(out.Terms[j].SMDAfter))
		})
	}
	return out
}

// Select keeps only the named terms, in the table's current order
func (a *Assembler) Select(t *balance.Table, terms map[string]bool) *balance.Table {
	out := &balance.Table{
		Aggregate: t.Aggregate,
		Subclass:  append([]balance.SubclassRow(nil), t.Subclass...),
		Sort:      t.Sort,
	}
	for _, row := range t.Terms {
		if terms[row.Term.String()] {
			out.Terms = append(out.Terms, row)
		}
	}
	return out
}

func nanLast(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
