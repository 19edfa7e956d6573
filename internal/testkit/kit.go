// Package testkit provides canonical study-design fixtures shared across the
// test suites.
package testkit

import (
	"gopower/domain/design"
)

// TwoGroupSpec is the canonical between-only design: two groups 25 units
// apart on a spread of 100 (a d=0.25 effect).
func TwoGroupSpec() design.Spec {
	return design.Spec{
		Between: design.NewFactor("group", "Control", "Alcohol"),
		Means:   []float64{400, 425},
		SD:      100,
	}
}

// PrePostSpec is the canonical mixed design: two groups measured Pre and
// Post, with the effect confined to the treated group's Post cell and a 0.5
// correlation between a subject's repeated measures.
func PrePostSpec() design.Spec {
	within := design.NewFactor("measurement", "Pre", "Post")
	return design.Spec{
		Between: design.NewFactor("group", "Control", "Alcohol"),
		Within:  &within,
		// Between-major cell order: Control/Pre, Control/Post, Alcohol/Pre,
		// Alcohol/Post.
		Means:   []float64{400, 400, 400, 425},
		SD:      100,
		WithinR: 0.5,
	}
}

// PrePostWithAgeSpec extends PrePostSpec with an age confounder correlated
// with the baseline measurement, truncated to a plausible adult range and
// rounded to whole years.
func PrePostWithAgeSpec() design.Spec {
	spec := PrePostSpec()
	spec.Confounder = &design.ConfounderSpec{
		Name:          "age",
		CorrelateWith: "Pre",
		R:             0.2,
		Mean:          35,
		SD:            10,
		Min:           18,
		Max:           65,
		RoundToInt:    true,
	}
	return spec
}

// SmallGrid is a grid cheap enough for unit tests.
func SmallGrid(replications int) design.SampleSizeGrid {
	return design.SampleSizeGrid{Sizes: []int{10, 30, 50}, Replications: replications}
}
