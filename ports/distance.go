package ports

import (
	"context"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// Scorer maps covariates to a treatment probability in [0,1]. The
// built-in logit/probit fits implement it; callers may supply their own
// fitted model instead.
type Scorer interface {
	Score(ctx context.Context, ds *match.Dataset, formula match.Formula) (map[core.UnitID]float64, error)
}

// DistancePort produces the pairwise treated-to-control closeness
// measure for a dataset under one configuration
type DistancePort interface {
	Distances(ctx context.Context, ds *match.Dataset, formula match.Formula, cfg match.Config) (*match.DistanceMatrix, error)
}
