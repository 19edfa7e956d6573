package regression

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/design"
	"gopower/domain/model"
)

// Fitter fits the regression implied by a study design. The design is bound
// at construction so term coding stays consistent with the generator that
// produced the data.
type Fitter struct {
	spec design.Spec
}

// NewFitter creates a fitter for one study design.
func NewFitter(spec design.Spec) *Fitter {
	return &Fitter{spec: spec}
}

// Fit runs OLS, or the random-intercept estimator when the formula asks for
// one, and returns the normalized coefficient table. Numerical failure
// (singular design, degenerate variance components) surfaces as
// core.ErrFitDidNotConverge.
func (f *Fitter) Fit(ctx context.Context, data *dataset.Simulated, formula model.Formula) (model.CoefficientTable, error) {
	if err := ctx.Err(); err != nil {
		return model.CoefficientTable{}, core.NewConvergenceError(err)
	}
	dm, err := buildDesignMatrix(f.spec, data, formula)
	if err != nil {
		return model.CoefficientTable{}, err
	}
	y := data.Outcomes()
	if formula.RandomIntercept {
		return f.fitRandomIntercept(ctx, dm, y, data)
	}
	return solveOLS(dm, y)
}

// solveOLS estimates beta by QR, with classical standard errors and
// Student's t p-values on n-p degrees of freedom.
func solveOLS(dm *designMatrix, y []float64) (model.CoefficientTable, error) {
	n, p := dm.X.Dims()
	if n <= p {
		return model.CoefficientTable{}, core.NewConvergenceError(
			core.NewInvalidParameterError("ols", "fewer observations than parameters"))
	}

	yVec := mat.NewVecDense(n, y)
	var qr mat.QR
	qr.Factorize(dm.X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yVec); err != nil {
		return model.CoefficientTable{}, core.NewConvergenceError(err)
	}

	// Residual variance
	var fitted mat.VecDense
	fitted.MulVec(dm.X, &beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}
	df := float64(n - p)
	sigma2 := rss / df

	// Coefficient covariance via (X'X)^-1
	var xtx, xtxInv mat.Dense
	xtx.Mul(dm.X.T(), dm.X)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return model.CoefficientTable{}, core.NewConvergenceError(err)
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	rows := make([]model.Coefficient, p)
	for j := 0; j < p; j++ {
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		if se == 0 || math.IsNaN(se) {
			return model.CoefficientTable{}, core.NewConvergenceError(
				core.NewInvalidParameterError("ols", "degenerate standard error"))
		}
		t := est / se
		rows[j] = model.Coefficient{
			Term:      dm.Terms[j],
			Estimate:  est,
			StdError:  se,
			Statistic: t,
			PValue:    2 * tDist.Survival(math.Abs(t)),
		}
	}
	return model.CoefficientTable{Rows: rows}, nil
}
