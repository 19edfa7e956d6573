package ports

import (
	"context"

	"gopower/domain/dataset"
	"gopower/domain/model"
)

// ModelFitter is the sole seam to an external regression implementation.
// Fit runs the regression described by the formula against one simulated
// dataset and returns a normalized coefficient table. Numerical failure
// surfaces as core.ErrFitDidNotConverge; the context bounds fit time.
type ModelFitter interface {
	Fit(ctx context.Context, data *dataset.Simulated, formula model.Formula) (model.CoefficientTable, error)
}
