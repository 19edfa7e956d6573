package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gopower/adapters/rng"
	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/design"
	"gopower/domain/model"
	"gopower/domain/power"
	"gopower/domain/run"
	"gopower/ports"
)

// DefaultAlpha is the significance level used when a request leaves it zero.
const DefaultAlpha = 0.05

// RunRequest describes one complete power run.
type RunRequest struct {
	Spec       design.Spec
	Grid       design.SampleSizeGrid
	Formula    model.Formula
	Selector   model.TermSelector
	Alpha      float64
	Seed       int64
	Thresholds []float64
}

// RunResult is everything a run produces. When the run is aborted through
// the context, Manifest.Aborted is set and the result holds whatever
// outcomes were committed before the abort; those stay valid for
// aggregation.
type RunResult struct {
	Manifest     *run.Manifest
	Outcomes     []power.ReplicationOutcome
	Curve        power.Curve
	Interpolated power.InterpolatedCurve
	Required     []ports.RequiredN
}

// PowerService drives the replication grid: it generates one dataset per
// (sample size, replication) cell, fits the model, extracts the term of
// interest, and aggregates significance into a power curve.
type PowerService struct {
	generator *Generator
	fitter    ports.ModelFitter
	log       *slog.Logger

	workers     int
	fitTimeout  time.Duration
	codeVersion string
}

// NewPowerService creates a power service. workers bounds the parallel
// fits; fitTimeout guards each fit against pathological non-convergence.
func NewPowerService(generator *Generator, fitter ports.ModelFitter, log *slog.Logger, workers int, fitTimeout time.Duration, codeVersion string) *PowerService {
	if workers <= 0 {
		workers = 1
	}
	return &PowerService{
		generator:   generator,
		fitter:      fitter,
		log:         log,
		workers:     workers,
		fitTimeout:  fitTimeout,
		codeVersion: codeVersion,
	}
}

// Run executes the full grid. Configuration errors (invalid design or grid,
// unresolvable term selector) are fatal and reported before any simulation
// starts; per-replication fit failures are isolated, logged with their grid
// coordinates, and excluded from the power denominator.
func (s *PowerService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	started := time.Now()

	if req.Alpha == 0 {
		req.Alpha = DefaultAlpha
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	term, err := req.Selector.Resolve(req.Spec)
	if err != nil {
		return nil, err
	}
	if err := s.dryRun(ctx, req, term); err != nil {
		return nil, err
	}

	manifest := run.NewManifest(req.Spec, req.Grid, term, req.Alpha, req.Seed, s.codeVersion)
	s.log.Info("power run starting",
		"run_id", manifest.RunID,
		"sizes", len(req.Grid.Sizes),
		"replications", req.Grid.Replications,
		"term", term,
		"seed", req.Seed)

	outcomes, aborted := s.runGrid(ctx, req, term)

	curve := power.Aggregate(outcomes)
	result := &RunResult{
		Manifest: manifest,
		Outcomes: outcomes,
		Curve:    curve,
	}
	manifest.TotalReplications = len(outcomes)
	manifest.FailedFits = curve.TotalFailed()
	manifest.Aborted = aborted
	manifest.RuntimeMs = time.Since(started).Milliseconds()

	if knots := curve.Known(); len(knots) >= 2 {
		interpolated, err := power.Interpolate(curve, knots[0].SampleSize, knots[len(knots)-1].SampleSize)
		if err != nil {
			return nil, err
		}
		result.Interpolated = interpolated
		for _, threshold := range req.Thresholds {
			required := ports.RequiredN{Threshold: threshold}
			n, err := power.RequiredSampleSize(interpolated, threshold)
			if err == nil {
				required.SampleSize = n
				required.Found = true
			} else if !errors.Is(err, core.ErrThresholdNotReached) {
				return nil, err
			}
			result.Required = append(result.Required, required)
		}
	}

	s.log.Info("power run finished",
		"run_id", manifest.RunID,
		"outcomes", manifest.TotalReplications,
		"failed_fits", manifest.FailedFits,
		"aborted", manifest.Aborted,
		"runtime_ms", manifest.RuntimeMs)
	return result, nil
}

func (s *PowerService) validate(req RunRequest) error {
	if err := req.Spec.Validate(); err != nil {
		return err
	}
	if err := req.Grid.Validate(); err != nil {
		return err
	}
	if req.Alpha <= 0 || req.Alpha >= 1 {
		return core.NewInvalidParameterError("alpha", "must be in (0, 1)")
	}
	for _, t := range req.Thresholds {
		if t <= 0 || t > 1 {
			return core.NewInvalidParameterError("threshold", "must be in (0, 1]")
		}
	}
	return nil
}

// dryRun fits one synthetic replication up front so a selector that matches
// no fitted term fails fast instead of surfacing replication after
// replication inside the grid. A non-converging dry-run fit is only logged:
// small grid minima legitimately fail to converge sometimes.
func (s *PowerService) dryRun(ctx context.Context, req RunRequest, term string) error {
	data, err := s.generator.Generate(req.Spec, req.Grid.Min(), "dry-run", req.Seed)
	if err != nil {
		return err
	}
	table, err := s.fit(ctx, data, req.Formula)
	if err != nil {
		if core.IsRecoverable(err) {
			s.log.Warn("dry-run fit did not converge, continuing", "error", err)
			return nil
		}
		return err
	}
	if _, ok := table.Lookup(term); !ok {
		return core.NewTermNotFoundError(term, table.Terms())
	}
	return nil
}

// runGrid fans the (sample size, replication) cells over the worker pool.
// Each cell derives its own seed from the base seed and its coordinates, so
// execution order never changes results. Outcomes are committed one at a
// time under a lock; on cancellation the committed prefix is returned as-is.
func (s *PowerService) runGrid(ctx context.Context, req RunRequest, term string) ([]power.ReplicationOutcome, bool) {
	var (
		mu       sync.Mutex
		outcomes []power.ReplicationOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, sampleSize := range req.Grid.Sizes {
		for rep := 1; rep <= req.Grid.Replications; rep++ {
			n, rep := sampleSize, rep
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				outcome := s.replicate(gctx, req, term, n, rep)
				if gctx.Err() != nil {
					// Cancelled mid-cell: drop the partial outcome rather
					// than commit an abort artifact as a fit failure.
					return gctx.Err()
				}
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
				return nil
			})
		}
	}
	err := g.Wait()
	aborted := err != nil || ctx.Err() != nil
	if aborted {
		s.log.Warn("power run aborted, keeping committed outcomes", "committed", len(outcomes))
	}
	return outcomes, aborted
}

// replicate runs one grid cell: generate, fit, extract, classify.
func (s *PowerService) replicate(ctx context.Context, req RunRequest, term string, sampleSize, replication int) power.ReplicationOutcome {
	outcome := power.ReplicationOutcome{
		SampleSize:  sampleSize,
		Replication: replication,
		Term:        term,
	}

	data, err := s.generator.Generate(req.Spec, sampleSize, rng.TaskName(sampleSize, replication), req.Seed)
	if err != nil {
		return s.fail(outcome, err)
	}
	table, err := s.fit(ctx, data, req.Formula)
	if err != nil {
		return s.fail(outcome, err)
	}
	coef, ok := table.Lookup(term)
	if !ok {
		// The dry run resolves the term scheme, so this only happens when a
		// substitute fitter names terms inconsistently.
		return s.fail(outcome, core.NewTermNotFoundError(term, table.Terms()))
	}

	outcome.Estimate = coef.Estimate
	outcome.PValue = coef.PValue
	outcome.Significant = coef.PValue <= req.Alpha
	return outcome
}

// fit applies the per-fit timeout around the fitter. The fit runs in its own
// goroutine so a wedged solver cannot hang a worker past the deadline.
func (s *PowerService) fit(ctx context.Context, data *dataset.Simulated, formula model.Formula) (model.CoefficientTable, error) {
	fitCtx := ctx
	var cancel context.CancelFunc
	if s.fitTimeout > 0 {
		fitCtx, cancel = context.WithTimeout(ctx, s.fitTimeout)
		defer cancel()
	}

	type fitResult struct {
		table model.CoefficientTable
		err   error
	}
	ch := make(chan fitResult, 1)
	go func() {
		table, err := s.fitter.Fit(fitCtx, data, formula)
		ch <- fitResult{table, err}
	}()

	select {
	case r := <-ch:
		return r.table, r.err
	case <-fitCtx.Done():
		if ctx.Err() == nil && errors.Is(fitCtx.Err(), context.DeadlineExceeded) {
			return model.CoefficientTable{}, core.ErrFitTimeout
		}
		return model.CoefficientTable{}, core.NewConvergenceError(fitCtx.Err())
	}
}

func (s *PowerService) fail(outcome power.ReplicationOutcome, err error) power.ReplicationOutcome {
	outcome.Failed = true
	outcome.Error = err.Error()
	s.log.Warn("replication failed",
		"sample_size", outcome.SampleSize,
		"replication", outcome.Replication,
		"error", err)
	return outcome
}
