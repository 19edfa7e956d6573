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
	"gopower/domain/model"
	"gopower/internal/testkit"
)

func TestRandomIntercept_InteractionRecovery(t *testing.T) {
	// Pre/Post design with the 25-unit effect confined to Alcohol/Post: the
	// interaction coefficient is the treatment effect.
	spec := testkit.PrePostSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 1000, "mixed-recovery", 123)
	require.NoError(t, err)

	table, err := regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{
		Interaction:     true,
		RandomIntercept: true,
	})
	require.NoError(t, err)

	coef, ok := table.Lookup("group:Alcohol × measurement:Post")
	require.True(t, ok, "terms: %v", table.Terms())
	assert.InDelta(t, 25, coef.Estimate, 15)
	assert.Less(t, coef.PValue, 0.01)
}

func TestRandomIntercept_TightensInteractionSE(t *testing.T) {
	// With correlated repeated measures, exploiting the subject structure
	// must not inflate the interaction SE relative to pooled OLS.
	spec := testkit.PrePostSpec()
	spec.WithinR = 0.8
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 400, "mixed-se", 7)
	require.NoError(t, err)

	fitter := regression.NewFitter(spec)
	olsTable, err := fitter.Fit(context.Background(), data, model.Formula{Interaction: true})
	require.NoError(t, err)
	glsTable, err := fitter.Fit(context.Background(), data, model.Formula{Interaction: true, RandomIntercept: true})
	require.NoError(t, err)

	term := "group:Alcohol × measurement:Post"
	olsCoef, _ := olsTable.Lookup(term)
	glsCoef, _ := glsTable.Lookup(term)
	assert.LessOrEqual(t, glsCoef.StdError, olsCoef.StdError*1.05)
}

func TestRandomIntercept_TooFewSubjects(t *testing.T) {
	spec := testkit.PrePostSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 1, "mixed-tiny", 11)
	require.NoError(t, err)

	// Keep a single subject's rows: the random intercept is unidentifiable.
	data.Observations = data.Observations[:2]
	_, err = regression.NewFitter(spec).Fit(context.Background(), data, model.Formula{RandomIntercept: true})
	assert.ErrorIs(t, err, core.ErrFitDidNotConverge)
}

func TestRandomIntercept_BetweenOnlyFallsBackToOLS(t *testing.T) {
	// One row per subject leaves nothing for the intercept variance; the
	// fitter must degrade to OLS rather than fail.
	spec := testkit.TwoGroupSpec()
	gen := app.NewGenerator(rng.NewSource())
	data, err := gen.Generate(spec, 200, "mixed-flat", 13)
	require.NoError(t, err)

	fitter := regression.NewFitter(spec)
	gls, err := fitter.Fit(context.Background(), data, model.Formula{RandomIntercept: true})
	require.NoError(t, err)
	ols, err := fitter.Fit(context.Background(), data, model.Formula{})
	require.NoError(t, err)

	g, _ := gls.Lookup("group:Alcohol")
	o, _ := ols.Lookup("group:Alcohol")
	assert.InDelta(t, o.Estimate, g.Estimate, 1e-9)
	assert.InDelta(t, o.StdError, g.StdError, 1e-9)
}
