package power

import (
	"fmt"

	"gopower/domain/core"
)

// InterpolatedCurve holds linearly interpolated power for every integer
// sample size in [MinN, MaxN]. Empirical points pass through unaltered.
// The curve is not guaranteed monotonic: linear interpolation between
// non-monotonic empirical points keeps whatever shape the simulation gave.
type InterpolatedCurve struct {
	MinN   int       `json:"min_n"`
	MaxN   int       `json:"max_n"`
	Values []float64 `json:"values"` // Values[i] is power at MinN+i
}

// At returns the interpolated power at n, or ErrOutOfRange outside
// [MinN, MaxN]. No extrapolation.
func (c InterpolatedCurve) At(n int) (float64, error) {
	if n < c.MinN || n > c.MaxN {
		return 0, core.NewOutOfRangeError(n, c.MinN, c.MaxN)
	}
	return c.Values[n-c.MinN], nil
}

// Interpolate fills every integer sample size in [minN, maxN] by linear
// interpolation between consecutive known points of the empirical curve.
// Sample sizes with undefined power (all replications failed) are skipped as
// knots. The requested range must stay inside the known points: interpolation
// never extrapolates.
func Interpolate(curve Curve, minN, maxN int) (InterpolatedCurve, error) {
	knots := curve.Known()
	if len(knots) == 0 {
		return InterpolatedCurve{}, core.ErrNoOutcomes
	}
	if minN > maxN {
		return InterpolatedCurve{}, core.NewInvalidParameterError("range", fmt.Sprintf("min %d > max %d", minN, maxN))
	}
	lo, hi := knots[0].SampleSize, knots[len(knots)-1].SampleSize
	if minN < lo {
		return InterpolatedCurve{}, core.NewOutOfRangeError(minN, lo, hi)
	}
	if maxN > hi {
		return InterpolatedCurve{}, core.NewOutOfRangeError(maxN, lo, hi)
	}

	out := InterpolatedCurve{
		MinN:   minN,
		MaxN:   maxN,
		Values: make([]float64, maxN-minN+1),
	}
	seg := 0
	for n := minN; n <= maxN; n++ {
		for seg+1 < len(knots) && knots[seg+1].SampleSize < n {
			seg++
		}
		left := knots[seg]
		if n == left.SampleSize {
			out.Values[n-minN] = left.Power
			continue
		}
		right := knots[seg+1]
		if n == right.SampleSize {
			out.Values[n-minN] = right.Power
			continue
		}
		frac := float64(n-left.SampleSize) / float64(right.SampleSize-left.SampleSize)
		out.Values[n-minN] = left.Power + frac*(right.Power-left.Power)
	}
	return out, nil
}

// RequiredSampleSize scans the interpolated curve in increasing order and
// returns the first sample size whose power meets or exceeds threshold.
// The scan never assumes monotonicity; it stops at the first qualifying
// point. ErrThresholdNotReached when no sample size in range qualifies.
func RequiredSampleSize(curve InterpolatedCurve, threshold float64) (int, error) {
	if threshold <= 0 || threshold > 1 {
		return 0, core.NewInvalidParameterError("threshold", fmt.Sprintf("must be in (0, 1], got %v", threshold))
	}
	for n := curve.MinN; n <= curve.MaxN; n++ {
		if curve.Values[n-curve.MinN] >= threshold {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: threshold %.2f over [%d, %d]", core.ErrThresholdNotReached, threshold, curve.MinN, curve.MaxN)
}
