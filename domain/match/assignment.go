package match

import (
	"sort"

	"gomatch/domain/core"
)

// StratumUnassigned is the sentinel stratum for units without a match
const StratumUnassigned = -1

// Assignment maps each unit to the strata it belongs to. Without
// replacement every slice has length ≤ 1; with replacement a control
// unit may appear in several strata. Missing or empty entries mean
// unassigned.
type Assignment struct {
	ByUnit map[core.UnitID][]int `json:"by_unit"`
	Count  int                   `json:"count"`
}

// NewAssignment creates an empty assignment
func NewAssignment() *Assignment {
	return &Assignment{ByUnit: make(map[core.UnitID][]int)}
}

// Assign places a unit into a stratum
func (a *Assignment) Assign(id core.UnitID, stratum int) {
	a.ByUnit[id] = append(a.ByUnit[id], stratum)
	if stratum >= a.Count {
		a.Count = stratum + 1
	}
}

// StrataOf returns the strata a unit belongs to (nil if unassigned)
func (a *Assignment) StrataOf(id core.UnitID) []int {
	return a.ByUnit[id]
}

// Assigned reports whether the unit belongs to at least one stratum
func (a *Assignment) Assigned(id core.UnitID) bool {
	return len(a.ByUnit[id]) > 0
}

// Members collects unit IDs per stratum, sorted for determinism
func (a *Assignment) Members() map[int][]core.UnitID {
	members := make(map[int][]core.UnitID)
	for id, strata := range a.ByUnit {
		for _, s := range strata {
			members[s] = append(members[s], id)
		}
	}
	for s := range members {
		ids := members[s]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return members
}

// Normalize enforces the stratum validity invariant: every kept stratum
// holds at least one treated and one control unit. Invalid strata are
// dropped, their members become unassigned, stratum numbers are
// compacted, and one warning per newly unassigned unit is returned.
func (a *Assignment) Normalize(ds *Dataset) []Warning {
	treatedIn := make(map[int]int)
	controlIn := make(map[int]int)
	for id, strata := range a.ByUnit {
		i := ds.Index(id)
		if i < 0 {
			continue
		}
		for _, s := range strata {
			if ds.Unit(i).Treated() {
				treatedIn[s]++
			} else {
				controlIn[s]++
			}
		}
	}

	renumber := make(map[int]int)
	next := 0
	for s := 0; s < a.Count; s++ {
		if treatedIn[s] > 0 && controlIn[s] > 0 {
			renumber[s] = next
			next++
		}
	}

	var warnings []Warning
	for id, strata := range a.ByUnit {
		kept := strata[:0]
		for _, s := range strata {
			if ns, ok := renumber[s]; ok {
				kept = append(kept, ns)
			}
		}
		if len(kept) == 0 {
			delete(a.ByUnit, id)
			warnings = append(warnings, Warning{
				Code:   WarningInfeasibleAssignment,
				UnitID: id,
				Detail: "no valid stratum under current constraints",
			})
		} else {
			a.ByUnit[id] = kept
		}
	}
	a.Count = next

	sort.Slice(warnings, func(i, j int) bool { return warnings[i].UnitID < warnings[j].UnitID })
	return warnings
}
