package distance

import (
	"context"
	"math"

	"gomatch/domain/match"
	"gomatch/ports"
)

// Provider implements ports.DistancePort over the two interchangeable
// closeness measures: propensity-score gaps and Mahalanobis norms.
type Provider struct {
	// scorer overrides the built-in propensity fit when the caller
	// supplies an already-fitted model
	scorer ports.Scorer
}

// NewProvider creates a provider using the built-in scoring models
func NewProvider() *Provider {
	return &Provider{}
}

// NewProviderWithScorer creates a provider with a user-supplied scorer
func NewProviderWithScorer(scorer ports.Scorer) *Provider {
	return &Provider{scorer: scorer}
}

// Distances computes the pairwise treated-to-control matrix per the
// configured measure
func (p *Provider) Distances(ctx context.Context, ds *match.Dataset, formula match.Formula, cfg match.Config) (*match.DistanceMatrix, error) {
	if cfg.Distance == match.DistanceMahalanobis {
		return mahalanobisMatrix(ds, formula)
	}

	scorer := p.scorer
	if scorer == nil {
		scorer = NewPropensityScorer(cfg.Link)
	}
	scores, err := scorer.Score(ctx, ds, formula)
	if err != nil {
		return nil, err
	}

	m := match.NewDistanceMatrix(ds)
	m.Scores = scores
	for r, tIdx := range m.TreatedIdx {
		st := scores[ds.Unit(tIdx).ID]
		for c, cIdx := range m.ControlIdx {
			m.Dist[r][c] = math.Abs(st - scores[ds.Unit(cIdx).ID])
		}
	}
	return m, nil
}
