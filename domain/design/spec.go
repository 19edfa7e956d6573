// Package design describes the hypothesized data-generating model a power
// run simulates from: between-subject groups, optional within-subject
// repeated measures, per-cell means and spreads, and an optional correlated
// confounder.
package design

import (
	"fmt"

	"gopower/domain/core"
)

// Factor is an ordered categorical variable. Reference names the level used
// as the statistical baseline; it governs coefficient naming and sign in the
// fitted model.
type Factor struct {
	Name      string   `json:"name"`
	Levels    []string `json:"levels"`
	Reference string   `json:"reference"`
}

// NewFactor creates a factor whose first level is the reference.
func NewFactor(name string, levels ...string) Factor {
	ref := ""
	if len(levels) > 0 {
		ref = levels[0]
	}
	return Factor{Name: name, Levels: levels, Reference: ref}
}

// HasLevel reports whether level is one of the factor's levels.
func (f Factor) HasLevel(level string) bool {
	for _, l := range f.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// NonReference returns the factor's levels excluding the reference, in
// declaration order. These are the levels that get model coefficients.
func (f Factor) NonReference() []string {
	out := make([]string, 0, len(f.Levels)-1)
	for _, l := range f.Levels {
		if l != f.Reference {
			out = append(out, l)
		}
	}
	return out
}

func (f Factor) validate(role string) error {
	if f.Name == "" {
		return core.NewInvalidParameterError(role, "factor name is empty")
	}
	if len(f.Levels) < 2 {
		return core.NewInvalidParameterError(role, fmt.Sprintf("factor %q needs at least 2 levels, got %d", f.Name, len(f.Levels)))
	}
	seen := make(map[string]bool, len(f.Levels))
	for _, l := range f.Levels {
		if l == "" {
			return core.NewInvalidParameterError(role, fmt.Sprintf("factor %q has an empty level", f.Name))
		}
		if seen[l] {
			return core.NewInvalidParameterError(role, fmt.Sprintf("factor %q has duplicate level %q", f.Name, l))
		}
		seen[l] = true
	}
	if !f.HasLevel(f.Reference) {
		return core.NewInvalidParameterError(role, fmt.Sprintf("reference %q is not a level of factor %q", f.Reference, f.Name))
	}
	return nil
}

// ConfounderSpec describes a covariate generated once per subject with a
// target correlation to one designated within-level's outcome (or to the
// subject's outcome in between-only designs).
type ConfounderSpec struct {
	Name string `json:"name"`
	// CorrelateWith names the within-level whose outcome anchors the
	// correlation (e.g. the "Pre" baseline). Ignored for between-only designs.
	CorrelateWith string  `json:"correlate_with,omitempty"`
	R             float64 `json:"r"`
	Mean          float64 `json:"mean"`
	SD            float64 `json:"sd"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	RoundToInt    bool    `json:"round_to_int"`
}

// Spec is the complete study design. Immutable after Validate; every
// component receives it by value and never mutates it.
type Spec struct {
	Between Factor  `json:"between"`
	Within  *Factor `json:"within,omitempty"`

	// Means holds one cell mean per between-level × within-level combination,
	// ordered between-major: for each between level, all within levels in
	// declaration order. For between-only designs, one mean per between level.
	Means []float64 `json:"means"`

	// SD is the shared cell standard deviation. CellSDs, when non-empty,
	// overrides it per cell with the same ordering as Means.
	SD      float64   `json:"sd"`
	CellSDs []float64 `json:"cell_sds,omitempty"`

	// WithinR is the correlation between a subject's repeated measures.
	// Only meaningful when Within is set.
	WithinR float64 `json:"within_r,omitempty"`

	Confounder *ConfounderSpec `json:"confounder,omitempty"`
}

// CellCount returns the number of design cells (between × within levels).
func (s Spec) CellCount() int {
	n := len(s.Between.Levels)
	if s.Within != nil {
		n *= len(s.Within.Levels)
	}
	return n
}

// WithinLevels returns the within-factor levels, or a single empty level for
// between-only designs so cell iteration has a uniform shape.
func (s Spec) WithinLevels() []string {
	if s.Within == nil {
		return []string{""}
	}
	return s.Within.Levels
}

// CellIndex maps a (between-level, within-level) pair onto the Means/CellSDs
// ordering. The within level is ignored for between-only designs.
func (s Spec) CellIndex(betweenLevel, withinLevel string) int {
	bi := indexOf(s.Between.Levels, betweenLevel)
	if s.Within == nil {
		return bi
	}
	wi := indexOf(s.Within.Levels, withinLevel)
	return bi*len(s.Within.Levels) + wi
}

// CellMean returns the hypothesized mean for a design cell.
func (s Spec) CellMean(betweenLevel, withinLevel string) float64 {
	return s.Means[s.CellIndex(betweenLevel, withinLevel)]
}

// CellSD returns the standard deviation for a design cell, falling back to
// the shared SD when no per-cell values are given.
func (s Spec) CellSD(betweenLevel, withinLevel string) float64 {
	if len(s.CellSDs) == 0 {
		return s.SD
	}
	return s.CellSDs[s.CellIndex(betweenLevel, withinLevel)]
}

// Validate checks the design invariants. It is the gate every run passes
// before any simulation work begins.
func (s Spec) Validate() error {
	if err := s.Between.validate("between"); err != nil {
		return err
	}
	if s.Within != nil {
		if err := s.Within.validate("within"); err != nil {
			return err
		}
		if s.Within.Name == s.Between.Name {
			return core.NewInvalidParameterError("within", fmt.Sprintf("within factor shares name %q with between factor", s.Within.Name))
		}
		if s.WithinR < -1 || s.WithinR > 1 {
			return core.NewInvalidParameterError("within_r", fmt.Sprintf("correlation %v outside [-1, 1]", s.WithinR))
		}
	}
	if got, want := len(s.Means), s.CellCount(); got != want {
		return core.NewInvalidParameterError("means", fmt.Sprintf("got %d cell means, design has %d cells", got, want))
	}
	if len(s.CellSDs) == 0 {
		if s.SD <= 0 {
			return core.NewInvalidParameterError("sd", fmt.Sprintf("standard deviation must be > 0, got %v", s.SD))
		}
	} else {
		if got, want := len(s.CellSDs), s.CellCount(); got != want {
			return core.NewInvalidParameterError("cell_sds", fmt.Sprintf("got %d cell sds, design has %d cells", got, want))
		}
		for i, sd := range s.CellSDs {
			if sd <= 0 {
				return core.NewInvalidParameterError("cell_sds", fmt.Sprintf("cell %d: standard deviation must be > 0, got %v", i, sd))
			}
		}
	}
	if c := s.Confounder; c != nil {
		if c.Name == "" {
			return core.NewInvalidParameterError("confounder", "name is empty")
		}
		if c.Name == s.Between.Name || (s.Within != nil && c.Name == s.Within.Name) {
			return core.NewInvalidParameterError("confounder", fmt.Sprintf("name %q collides with a factor name", c.Name))
		}
		if c.R < -1 || c.R > 1 {
			return core.NewInvalidParameterError("confounder", fmt.Sprintf("correlation %v outside [-1, 1]", c.R))
		}
		if c.SD < 0 {
			return core.NewInvalidParameterError("confounder", fmt.Sprintf("standard deviation must be >= 0, got %v", c.SD))
		}
		if c.Min > c.Max {
			return core.NewInvalidParameterError("confounder", fmt.Sprintf("truncation bounds inverted: [%v, %v]", c.Min, c.Max))
		}
		if s.Within != nil {
			if c.CorrelateWith == "" {
				return core.NewInvalidParameterError("confounder", "correlate_with is required for within-subject designs")
			}
			if !s.Within.HasLevel(c.CorrelateWith) {
				return core.NewInvalidParameterError("confounder", fmt.Sprintf("correlate_with %q is not a level of factor %q", c.CorrelateWith, s.Within.Name))
			}
		}
	}
	return nil
}

// Hash fingerprints the design for run manifests.
func (s Spec) Hash() core.DesignHash {
	fields := map[string]interface{}{
		"between": s.Between,
		"means":   s.Means,
		"sd":      s.SD,
	}
	if s.Within != nil {
		fields["within"] = *s.Within
		fields["within_r"] = s.WithinR
	}
	if len(s.CellSDs) > 0 {
		fields["cell_sds"] = s.CellSDs
	}
	if s.Confounder != nil {
		fields["confounder"] = *s.Confounder
	}
	return core.ComputeDesignHash(fields)
}

func indexOf(levels []string, level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}
