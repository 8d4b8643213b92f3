package ports

import (
	"context"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// ResultRepository persists completed match results for later
// inspection by reporting tools
type ResultRepository interface {
	Save(ctx context.Context, result *match.Result) error
	GetByID(ctx context.Context, id core.ResultID) (*match.Result, error)
	List(ctx context.Context, limit, offset int) ([]*match.Result, error)
	Delete(ctx context.Context, id core.ResultID) error
}
