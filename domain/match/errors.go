package match

import (
	"fmt"

	"gomatch/domain/core"
)

// NonconvergenceError reports an optimal-full solve that ran out of
// iteration budget. It carries the best assignment found so far; the
// partial result stays inspectable even though the error is fatal.
type NonconvergenceError struct {
	Iterations int
	Gap        float64
	Partial    *Assignment
}

func (e *NonconvergenceError) Error() string {
	return fmt.Sprintf("%v: %d iterations, residual gap %g",
		core.ErrNonconvergence, e.Iterations, e.Gap)
}

func (e *NonconvergenceError) Unwrap() error {
	return core.ErrNonconvergence
}
