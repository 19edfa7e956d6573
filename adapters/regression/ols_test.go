package regression_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/adapters/regression"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/model"
	"gopower/internal/testkit"
)

func TestOLS_TwoGroupRecovery(t *testing.T) {
	// means (400, 425), sd 100, n=1000 per cell: the group coefficient must
	// sit near 25 with a trivially small p-value.
	spec := testkit.TwoGroupSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 1000, "two-group", 123)
	require.NoError(t, err)

	table, err := regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{})
	require.NoError(t, err)

	coef, ok := table.Lookup("group:Alcohol")
	require.True(t, ok, "terms: %v", table.Terms())
	assert.InDelta(t, 25, coef.Estimate, 15)
	// Classical SE for a two-group mean difference: sd*sqrt(2/n).
	assert.InDelta(t, 4.47, coef.StdError, 0.5)
	assert.Less(t, coef.PValue, 0.01)

	intercept, ok := table.Lookup(model.InterceptTerm)
	require.True(t, ok)
	assert.InDelta(t, 400, intercept.Estimate, 15)
}

func TestOLS_TermNaming(t *testing.T) {
	spec := testkit.PrePostSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 50, "naming", 1)
	require.NoError(t, err)

	table, err := regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{Interaction: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		model.InterceptTerm,
		"group:Alcohol",
		"measurement:Post",
		"group:Alcohol × measurement:Post",
	}, table.Terms())
}

func TestOLS_CovariateColumn(t *testing.T) {
	spec := testkit.PrePostWithAgeSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 80, "covariate", 2)
	require.NoError(t, err)

	table, err := regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{
		Covariates:  []string{"age"},
		Interaction: true,
	})
	require.NoError(t, err)

	_, ok := table.Lookup("age")
	assert.True(t, ok, "terms: %v", table.Terms())

	// A covariate missing from the dataset is a configuration error.
	_, err = regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{
		Covariates: []string{"income"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestOLS_TooFewObservations(t *testing.T) {
	spec := testkit.TwoGroupSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 1, "tiny", 3)
	require.NoError(t, err)

	// 2 observations, 2 parameters: no residual degrees of freedom.
	_, err = regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{})
	assert.ErrorIs(t, err, core.ErrFitDidNotConverge)
}

func TestOLS_EmptyDataset(t *testing.T) {
	spec := testkit.TwoGroupSpec()
	_, err := regression.NewFitter(spec).Fit(context.Background(), &dataset.Simulated{}, model.Formula{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestOLS_CancelledContext(t *testing.T) {
	spec := testkit.TwoGroupSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 20, "cancelled", 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = regression.NewFitter(spec).Fit(ctx, data, model.Formula{})
	assert.ErrorIs(t, err, core.ErrFitDidNotConverge)
}
