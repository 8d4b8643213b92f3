package match

import (
	"gomatch/domain/core"
)

// Method selects the assignment strategy
type Method string

const (
	MethodNone           Method = "none"
	MethodNearest        Method = "nearest"
	MethodOptimalPair    Method = "optimal-pair"
	MethodOptimalFull    Method = "optimal-full"
	MethodExact          Method = "exact"
	MethodCoarsenedExact Method = "coarsened-exact"
	MethodSubclass       Method = "subclass"
)

// DistanceKind selects the closeness measure
type DistanceKind string

const (
	DistancePropensity  DistanceKind = "propensity"
	DistanceMahalanobis DistanceKind = "mahalanobis"
)

// Link selects the propensity model's link function
type Link string

const (
	LinkLogit  Link = "logit"
	LinkProbit Link = "probit"
)

// Estimand is the target population for weight derivation
type Estimand string

const (
	EstimandATT Estimand = "ATT"
	EstimandATE Estimand = "ATE"
	EstimandATC Estimand = "ATC"
)

// OrderPolicy controls the order greedy matching visits treated units
type OrderPolicy string

const (
	OrderDescending OrderPolicy = "descending"
	OrderAscending  OrderPolicy = "ascending"
	OrderData       OrderPolicy = "data"
	OrderRandom     OrderPolicy = "random"
)

// DiscardRule selects which side common-support discarding applies to
type DiscardRule string

const (
	DiscardNone    DiscardRule = "none"
	DiscardTreated DiscardRule = "treated"
	DiscardControl DiscardRule = "control"
	DiscardBoth    DiscardRule = "both"
)

// Config is the complete matching configuration. Derived structures are
// pure functions of (dataset, formula, config, seed); changing any field
// means rebuilding from scratch, never patching in place.
type Config struct {
	Method   Method       `json:"method"`
	Distance DistanceKind `json:"distance"`
	Link     Link         `json:"link"`

	Ratio   int  `json:"ratio"`
	Replace bool `json:"replace"`

	// Caliper prunes pairs whose distance-measure gap exceeds the
	// threshold. CaliperSD interprets it in standard deviations of the
	// propensity score rather than raw units.
	Caliper   float64 `json:"caliper,omitempty"`
	CaliperSD bool    `json:"caliper_sd,omitempty"`

	// CovariateCalipers prune pairs per named covariate
	CovariateCalipers map[core.CovariateKey]float64 `json:"covariate_calipers,omitempty"`

	Discard DiscardRule         `json:"discard"`
	Exact   []core.CovariateKey `json:"exact,omitempty"`

	// Subclasses is the bin count for subclassification
	Subclasses int `json:"subclasses,omitempty"`

	// Coarsening controls for coarsened-exact matching, per covariate.
	// Cutpoints win over Bins when both are present.
	Bins      map[core.CovariateKey]int       `json:"bins,omitempty"`
	Cutpoints map[core.CovariateKey][]float64 `json:"cutpoints,omitempty"`

	Estimand Estimand    `json:"estimand"`
	Order    OrderPolicy `json:"order"`

	// Tolerance and MaxIterations bound the optimal-full solver
	Tolerance     float64 `json:"tolerance,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`

	// Seed drives every random choice in the pipeline
	Seed int64 `json:"seed"`
}

// DefaultConfig returns 1:1 greedy nearest-neighbor matching on a
// logit propensity score targeting the ATT
func DefaultConfig() Config {
	return Config{
		Method:        MethodNearest,
		Distance:      DistancePropensity,
		Link:          LinkLogit,
		Ratio:         1,
		Discard:       DiscardNone,
		Subclasses:    6,
		Estimand:      EstimandATT,
		Order:         OrderDescending,
		Tolerance:     1e-7,
		MaxIterations: 10000,
	}
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	switch c.Method {
	case MethodNone, MethodNearest, MethodOptimalPair, MethodOptimalFull,
		MethodExact, MethodCoarsenedExact, MethodSubclass:
	default:
		return core.NewConfigError("method", string(c.Method))
	}

	switch c.Distance {
	case DistancePropensity, DistanceMahalanobis:
	default:
		return core.NewConfigError("distance", string(c.Distance))
	}

	if c.Distance == DistancePropensity {
		switch c.Link {
		case LinkLogit, LinkProbit:
		default:
			return core.NewConfigError("link", string(c.Link))
		}
	}

	if c.Ratio < 1 {
		return core.NewConfigError("ratio", "must be a positive integer")
	}
	if c.Caliper < 0 {
		return core.NewConfigError("caliper", "must be non-negative")
	}
	for key, w := range c.CovariateCalipers {
		if w < 0 {
			return core.NewConfigError("covariate_calipers", string(key)+" must be non-negative")
		}
	}

	switch c.Discard {
	case DiscardNone, DiscardTreated, DiscardControl, DiscardBoth:
	default:
		return core.NewConfigError("discard", string(c.Discard))
	}

	if c.Method == MethodSubclass && c.Subclasses < 1 {
		return core.NewConfigError("subclasses", "must be a positive integer")
	}

	switch c.Estimand {
	case EstimandATT, EstimandATE, EstimandATC:
	default:
		return core.NewConfigError("estimand", string(c.Estimand))
	}

	switch c.Order {
	case OrderDescending, OrderAscending, OrderData, OrderRandom:
	default:
		return core.NewConfigError("order", string(c.Order))
	}

	if c.Method == MethodOptimalFull {
		if c.Tolerance <= 0 {
			return core.NewConfigError("tolerance", "must be positive for optimal-full")
		}
		if c.MaxIterations < 1 {
			return core.NewConfigError("max_iterations", "must be positive for optimal-full")
		}
	}

	return nil
}
