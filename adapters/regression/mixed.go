package regression

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/model"
)

// fitRandomIntercept estimates the fixed effects of a random-intercept model
// by feasible GLS. With a balanced compound-symmetry covariance (shared
// subject intercept plus iid noise), GLS reduces to OLS on quasi-demeaned
// data: each observation has theta times its subject mean removed, where
// theta depends on the estimated variance components. The components come
// from pilot OLS residuals by method of moments.
func (f *Fitter) fitRandomIntercept(ctx context.Context, dm *designMatrix, y []float64, data *dataset.Simulated) (model.CoefficientTable, error) {
	subjects := data.Subjects()
	if len(subjects) < 2 {
		return model.CoefficientTable{}, core.NewConvergenceError(
			core.NewInvalidParameterError("mixed", "need at least 2 subjects for a random intercept"))
	}

	// Row indices per subject. The design is balanced: every subject
	// contributes one row per within level.
	rowsBySubject := make(map[core.SubjectID][]int, len(subjects))
	for i, obs := range data.Observations {
		rowsBySubject[obs.Subject] = append(rowsBySubject[obs.Subject], i)
	}
	k := len(rowsBySubject[subjects[0]])
	for _, s := range subjects {
		if len(rowsBySubject[s]) != k {
			return model.CoefficientTable{}, core.NewConvergenceError(
				core.NewInvalidParameterError("mixed", "unbalanced subjects"))
		}
	}
	if k < 2 {
		// One row per subject leaves the intercept variance unidentified.
		return solveOLS(dm, y)
	}
	if err := ctx.Err(); err != nil {
		return model.CoefficientTable{}, core.NewConvergenceError(err)
	}

	// Pilot OLS for residuals.
	pilot, err := solveOLS(dm, y)
	if err != nil {
		return model.CoefficientTable{}, err
	}
	resid := residuals(dm, y, pilot)

	sigmaU2, sigmaE2, err := estimateComponents(resid, subjects, rowsBySubject)
	if err != nil {
		return model.CoefficientTable{}, err
	}

	theta := 1 - math.Sqrt(sigmaE2/(sigmaE2+float64(k)*sigmaU2))

	// Quasi-demean y and X by subject, then refit by OLS. theta=0 collapses
	// to OLS; theta near 1 approaches the within estimator.
	n, p := dm.X.Dims()
	yStar := make([]float64, n)
	copy(yStar, y)
	xStar := &designMatrix{X: mat.DenseCopyOf(dm.X), Terms: dm.Terms}
	for _, s := range subjects {
		rows := rowsBySubject[s]
		ySum := 0.0
		for _, i := range rows {
			ySum += y[i]
		}
		yMean := ySum / float64(len(rows))
		for _, i := range rows {
			yStar[i] -= theta * yMean
		}
		for j := 0; j < p; j++ {
			sum := 0.0
			for _, i := range rows {
				sum += dm.X.At(i, j)
			}
			mean := sum / float64(len(rows))
			for _, i := range rows {
				xStar.X.Set(i, j, dm.X.At(i, j)-theta*mean)
			}
		}
	}
	return solveOLS(xStar, yStar)
}

// estimateComponents recovers the intercept and noise variances from pilot
// residuals: cross-products of a subject's residual pairs estimate sigmaU²,
// squared residuals estimate sigmaU²+sigmaE².
func estimateComponents(resid []float64, subjects []core.SubjectID, rowsBySubject map[core.SubjectID][]int) (float64, float64, error) {
	var total, pairSum float64
	var nPairs int
	for _, r := range resid {
		total += r * r
	}
	for _, s := range subjects {
		rows := rowsBySubject[s]
		for a := 0; a < len(rows); a++ {
			for b := a + 1; b < len(rows); b++ {
				pairSum += resid[rows[a]] * resid[rows[b]]
				nPairs++
			}
		}
	}
	if nPairs == 0 {
		return 0, 0, core.NewConvergenceError(
			core.NewInvalidParameterError("mixed", "no within-subject residual pairs"))
	}

	sigmaU2 := pairSum / float64(nPairs)
	if sigmaU2 < 0 {
		// Negative moment estimate: no detectable subject effect.
		sigmaU2 = 0
	}
	sigmaE2 := total/float64(len(resid)) - sigmaU2
	if sigmaE2 <= 0 {
		return 0, 0, core.NewConvergenceError(
			core.NewInvalidParameterError("mixed", "noise variance collapsed to zero"))
	}
	return sigmaU2, sigmaE2, nil
}

func residuals(dm *designMatrix, y []float64, table model.CoefficientTable) []float64 {
	n, p := dm.X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < p; j++ {
			fitted += dm.X.At(i, j) * table.Rows[j].Estimate
		}
		out[i] = y[i] - fitted
	}
	return out
}
