package match

import (
	"fmt"

	"gomatch/domain/core"
)

// Group labels one side of the treatment assignment
type Group string

const (
	GroupTreated Group = "treated"
	GroupControl Group = "control"
)

// Unit is one observation. Covariate values are numeric; categorical
// covariates arrive level-coded from the dataset readers. The outcome
// is carried through untouched for downstream consumers.
type Unit struct {
	ID         core.UnitID                   `json:"id"`
	Group      Group                         `json:"group"`
	Covariates map[core.CovariateKey]float64 `json:"covariates"`
	Outcome    interface{}                   `json:"outcome,omitempty"`
}

// Treated reports whether the unit is in the treated group
func (u *Unit) Treated() bool {
	return u.Group == GroupTreated
}

// Dataset is the immutable unit set plus the covariate column order.
// All derived structures (distances, assignments, weights, balance)
// are rebuilt from it; nothing in the pipeline mutates it.
type Dataset struct {
	Units      []Unit              `json:"units"`
	Covariates []core.CovariateKey `json:"covariates"`

	treated []int
	control []int
	byID    map[core.UnitID]int
}

// NewDataset validates and indexes the unit set
func NewDataset(units []Unit, covariates []core.CovariateKey) (*Dataset, error) {
	if len(covariates) == 0 {
		return nil, fmt.Errorf("%w: no covariates", core.ErrMalformedDataset)
	}

	ds := &Dataset{
		Units:      units,
		Covariates: covariates,
		byID:       make(map[core.UnitID]int, len(units)),
	}

	for i := range units {
		u := &units[i]
		if u.ID == "" {
			return nil, fmt.Errorf("%w: unit %d has empty ID", core.ErrMalformedDataset, i)
		}
		if _, dup := ds.byID[u.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate unit ID %s", core.ErrMalformedDataset, u.ID)
		}
		ds.byID[u.ID] = i

		switch u.Group {
		case GroupTreated:
			ds.treated = append(ds.treated, i)
		case GroupControl:
			ds.control = append(ds.control, i)
		default:
			return nil, fmt.Errorf("%w: unit %s has group %q", core.ErrMalformedDataset, u.ID, u.Group)
		}

		for _, key := range covariates {
			if _, ok := u.Covariates[key]; !ok {
				return nil, fmt.Errorf("%w: unit %s missing covariate %s", core.ErrMalformedDataset, u.ID, key)
			}
		}
	}

	if len(ds.treated) == 0 {
		return nil, core.ErrMissingTreatGroup
	}
	if len(ds.control) == 0 {
		return nil, core.ErrMissingCtrlGroup
	}

	return ds, nil
}

// Treated returns indices of treated units in input order
func (d *Dataset) Treated() []int { return d.treated }

// Control returns indices of control units in input order
func (d *Dataset) Control() []int { return d.control }

// Len returns the number of units
func (d *Dataset) Len() int { return len(d.Units) }

// Index resolves a unit ID to its position, or -1
func (d *Dataset) Index(id core.UnitID) int {
	if i, ok := d.byID[id]; ok {
		return i
	}
	return -1
}

// Unit returns the unit at position i
func (d *Dataset) Unit(i int) *Unit {
	return &d.Units[i]
}

// Column extracts one covariate across all units in input order
func (d *Dataset) Column(key core.CovariateKey) []float64 {
	col := make([]float64, len(d.Units))
	for i := range d.Units {
		col[i] = d.Units[i].Covariates[key]
	}
	return col
}

// HasCovariate reports whether key is one of the dataset's columns
func (d *Dataset) HasCovariate(key core.CovariateKey) bool {
	for _, k := range d.Covariates {
		if k == key {
			return true
		}
	}
	return false
}

// Binary reports whether a column takes at most two distinct values.
// Balance reporting omits variance ratios for binary terms.
func (d *Dataset) Binary(key core.CovariateKey) bool {
	seen := make(map[float64]struct{}, 3)
	for i := range d.Units {
		seen[d.Units[i].Covariates[key]] = struct{}{}
		if len(seen) > 2 {
			return false
		}
	}
	return true
}
