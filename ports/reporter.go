package ports

import (
	"gopower/domain/power"
	"gopower/domain/run"
)

// RequiredN pairs a target power threshold with the smallest sample size
// whose interpolated power reaches it. Found is false when no sample size in
// range qualifies.
type RequiredN struct {
	Threshold  float64 `json:"threshold"`
	SampleSize int     `json:"sample_size"`
	Found      bool    `json:"found"`
}

// Report bundles everything presentation layers render: the manifest, the
// empirical and interpolated curves, and the per-threshold answers.
type Report struct {
	Manifest     *run.Manifest              `json:"manifest"`
	Curve        power.Curve                `json:"curve"`
	Interpolated power.InterpolatedCurve    `json:"interpolated"`
	Required     []RequiredN                `json:"required"`
	Outcomes     []power.ReplicationOutcome `json:"outcomes,omitempty"`
}

// Reporter renders a completed run to some external format. Presentation
// only; the core pipeline never depends on a Reporter.
type Reporter interface {
	Write(report Report, path string) error
}
