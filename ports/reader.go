package ports

import (
	"context"

	"gomatch/domain/match"
)

// DatasetReader loads a rectangular dataset (unit rows, covariate
// columns, a binary treatment column, an outcome column the core
// ignores) from an external source
type DatasetReader interface {
	Read(ctx context.Context) (*match.Dataset, error)
}
