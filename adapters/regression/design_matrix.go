// Package regression implements the engine's model-fitting seam on gonum:
// ordinary least squares for between-only designs and a feasible GLS
// random-intercept estimator for repeated measures. Any conforming fitter
// can replace it behind ports.ModelFitter.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/design"
	"gopower/domain/model"
)

// designMatrix is the expanded fixed-effects matrix with its column names.
type designMatrix struct {
	X     *mat.Dense
	Terms []string
}

// buildDesignMatrix expands the dataset into treatment-coded predictor
// columns against the design's reference levels. Column order is stable:
// intercept, between dummies, within dummies, covariates, interactions.
func buildDesignMatrix(spec design.Spec, data *dataset.Simulated, formula model.Formula) (*designMatrix, error) {
	n := data.Len()
	if n == 0 {
		return nil, core.NewInvalidParameterError("dataset", "no observations")
	}

	betweenLevels := spec.Between.NonReference()
	var withinLevels []string
	if spec.Within != nil {
		withinLevels = spec.Within.NonReference()
	}
	if formula.Interaction && spec.Within == nil {
		return nil, core.NewInvalidParameterError("formula", "interaction requested on a between-only design")
	}

	terms := []string{model.InterceptTerm}
	for _, l := range betweenLevels {
		terms = append(terms, model.TermName(spec.Between.Name, l))
	}
	for _, l := range withinLevels {
		terms = append(terms, model.TermName(spec.Within.Name, l))
	}
	terms = append(terms, formula.Covariates...)
	if formula.Interaction {
		for _, bl := range betweenLevels {
			for _, wl := range withinLevels {
				terms = append(terms, model.InteractionTermName(spec.Between.Name, bl, spec.Within.Name, wl))
			}
		}
	}

	covariates := make(map[string][]float64, len(formula.Covariates))
	for _, name := range formula.Covariates {
		col, ok := data.Covariate(name)
		if !ok {
			return nil, core.NewInvalidParameterError("formula", fmt.Sprintf("covariate %q missing from dataset", name))
		}
		covariates[name] = col
	}

	p := len(terms)
	X := mat.NewDense(n, p, nil)
	for i, obs := range data.Observations {
		col := 0
		X.Set(i, col, 1)
		col++
		for _, l := range betweenLevels {
			X.Set(i, col, indicator(obs.Between == l))
			col++
		}
		for _, l := range withinLevels {
			X.Set(i, col, indicator(obs.Within == l))
			col++
		}
		for _, name := range formula.Covariates {
			X.Set(i, col, covariates[name][i])
			col++
		}
		if formula.Interaction {
			for _, bl := range betweenLevels {
				for _, wl := range withinLevels {
					X.Set(i, col, indicator(obs.Between == bl && obs.Within == wl))
					col++
				}
			}
		}
	}
	return &designMatrix{X: X, Terms: terms}, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
