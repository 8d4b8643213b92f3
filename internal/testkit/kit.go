package testkit

import (
	"math"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// MatrixFromScores builds a distance matrix with |score_t - score_c|
// entries, bypassing model fitting for solver tests
func MatrixFromScores(ds *match.Dataset, scores map[core.UnitID]float64) *match.DistanceMatrix {
	m := match.NewDistanceMatrix(ds)
	m.Scores = scores
	for i, t := range m.TreatedIdx {
		for j, c := range m.ControlIdx {
			m.Dist[i][j] = math.Abs(scores[ds.Unit(t).ID] - scores[ds.Unit(c).ID])
		}
	}
	return m
}

// UniformWeights gives every unit weight 1, the pre-match baseline
func UniformWeights(ds *match.Dataset) match.Weights {
	w := make(match.Weights, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		w[ds.Unit(i).ID] = 1
	}
	return w
}
