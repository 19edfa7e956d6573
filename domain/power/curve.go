package power

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Point is the empirical power at one sample size, with the counts behind it.
type Point struct {
	SampleSize  int     `json:"sample_size"`
	Power       float64 `json:"power"` // NaN when no replication fit successfully
	Significant int     `json:"significant"`
	Fitted      int     `json:"fitted"` // non-failed replications, the power denominator
	Failed      int     `json:"failed"`
	// MeanEstimate and SDEstimate summarize the term-of-interest estimates
	// across successful fits, a bias diagnostic alongside the power figure.
	MeanEstimate float64 `json:"mean_estimate"`
	SDEstimate   float64 `json:"sd_estimate"`
}

// Curve is the empirical power curve over the simulated grid, ordered by
// sample size.
type Curve struct {
	Points []Point `json:"points"`
}

// Aggregate groups outcomes by sample size and computes empirical power as
// the significant fraction of non-failed replications. A sample size whose
// replications all failed gets NaN power, never zero.
func Aggregate(outcomes []ReplicationOutcome) Curve {
	byN := make(map[int][]ReplicationOutcome)
	for _, o := range outcomes {
		byN[o.SampleSize] = append(byN[o.SampleSize], o)
	}
	sizes := make([]int, 0, len(byN))
	for n := range byN {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)

	curve := Curve{Points: make([]Point, 0, len(sizes))}
	for _, n := range sizes {
		pt := Point{SampleSize: n}
		var estimates []float64
		for _, o := range byN[n] {
			if o.Failed {
				pt.Failed++
				continue
			}
			pt.Fitted++
			estimates = append(estimates, o.Estimate)
			if o.Significant {
				pt.Significant++
			}
		}
		if pt.Fitted == 0 {
			pt.Power = math.NaN()
			pt.MeanEstimate = math.NaN()
			pt.SDEstimate = math.NaN()
		} else {
			pt.Power = float64(pt.Significant) / float64(pt.Fitted)
			pt.MeanEstimate, _ = stats.Mean(estimates)
			if len(estimates) > 1 {
				pt.SDEstimate, _ = stats.StandardDeviationSample(estimates)
			} else {
				pt.SDEstimate = math.NaN()
			}
		}
		curve.Points = append(curve.Points, pt)
	}
	return curve
}

// At returns the empirical point for an exact sample size.
func (c Curve) At(n int) (Point, bool) {
	for _, p := range c.Points {
		if p.SampleSize == n {
			return p, true
		}
	}
	return Point{}, false
}

// Known returns the points with a defined power value, in sample-size order.
func (c Curve) Known() []Point {
	out := make([]Point, 0, len(c.Points))
	for _, p := range c.Points {
		if !math.IsNaN(p.Power) {
			out = append(out, p)
		}
	}
	return out
}

// TotalFailed returns the failed replication count across all sample sizes.
func (c Curve) TotalFailed() int {
	total := 0
	for _, p := range c.Points {
		total += p.Failed
	}
	return total
}
