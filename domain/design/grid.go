package design

import (
	"fmt"

	"gopower/domain/core"
)

// SampleSizeGrid enumerates the candidate per-cell sample sizes and the
// number of independent simulated datasets drawn at each one.
type SampleSizeGrid struct {
	Sizes        []int `json:"sizes"`
	Replications int   `json:"replications"`
}

// NewArithmeticGrid builds a grid from min to max inclusive by step.
func NewArithmeticGrid(min, max, step, replications int) (SampleSizeGrid, error) {
	if step <= 0 {
		return SampleSizeGrid{}, core.NewInvalidParameterError("grid", fmt.Sprintf("step must be > 0, got %d", step))
	}
	if min > max {
		return SampleSizeGrid{}, core.NewInvalidParameterError("grid", fmt.Sprintf("min %d > max %d", min, max))
	}
	var sizes []int
	for n := min; n <= max; n += step {
		sizes = append(sizes, n)
	}
	g := SampleSizeGrid{Sizes: sizes, Replications: replications}
	if err := g.Validate(); err != nil {
		return SampleSizeGrid{}, err
	}
	return g, nil
}

// Validate checks the grid invariants: all sizes positive, strictly
// increasing, replication count positive.
func (g SampleSizeGrid) Validate() error {
	if len(g.Sizes) == 0 {
		return core.NewInvalidParameterError("grid", "no sample sizes")
	}
	prev := 0
	for _, n := range g.Sizes {
		if n <= 0 {
			return core.NewInvalidParameterError("grid", fmt.Sprintf("sample size must be > 0, got %d", n))
		}
		if n <= prev {
			return core.NewInvalidParameterError("grid", fmt.Sprintf("sample sizes must be strictly increasing, %d follows %d", n, prev))
		}
		prev = n
	}
	if g.Replications <= 0 {
		return core.NewInvalidParameterError("grid", fmt.Sprintf("replications must be > 0, got %d", g.Replications))
	}
	return nil
}

// Min returns the smallest sample size in the grid.
func (g SampleSizeGrid) Min() int { return g.Sizes[0] }

// Max returns the largest sample size in the grid.
func (g SampleSizeGrid) Max() int { return g.Sizes[len(g.Sizes)-1] }

// CellCount returns the total number of (sample size, replication) cells.
func (g SampleSizeGrid) CellCount() int { return len(g.Sizes) * g.Replications }
