// Package model defines the fitted-model vocabulary shared by the engine and
// its regression adapters: formulas, deterministic term names, coefficient
// tables, and the typed selector used to pick the term of interest.
package model

import (
	"fmt"

	"gopower/domain/core"
	"gopower/domain/design"
)

// InterceptTerm is the name of the intercept row in every coefficient table.
const InterceptTerm = "(Intercept)"

// TermName builds the deterministic name of a main-effect term from a factor
// name and a non-reference level, e.g. "group:Alcohol".
func TermName(factor, level string) string {
	return factor + ":" + level
}

// InteractionTermName builds the deterministic name of a two-way interaction
// term, e.g. "group:Alcohol × measurement:Post".
func InteractionTermName(betweenFactor, betweenLevel, withinFactor, withinLevel string) string {
	return TermName(betweenFactor, betweenLevel) + " × " + TermName(withinFactor, withinLevel)
}

// Formula describes the regression a replication fits. Fixed-effect terms
// are implied by the design (treatment coding against the reference levels);
// Covariates adds continuous predictors by name; Interaction adds the
// between × within interaction terms. RandomIntercept, when true, asks for a
// mixed model with a per-subject random intercept instead of OLS.
type Formula struct {
	Covariates      []string `json:"covariates,omitempty"`
	Interaction     bool     `json:"interaction,omitempty"`
	RandomIntercept bool     `json:"random_intercept,omitempty"`
}

// Coefficient is one row of a fitted coefficient table.
type Coefficient struct {
	Term      string  `json:"term"`
	Estimate  float64 `json:"estimate"`
	StdError  float64 `json:"std_error"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// CoefficientTable maps fitted term names to their rows. Produced fresh per
// fit and never mutated afterwards.
type CoefficientTable struct {
	Rows []Coefficient `json:"rows"`
}

// Lookup returns the row for an exact term name.
func (t CoefficientTable) Lookup(term string) (Coefficient, bool) {
	for _, r := range t.Rows {
		if r.Term == term {
			return r, true
		}
	}
	return Coefficient{}, false
}

// Terms returns the term names in table order.
func (t CoefficientTable) Terms() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Term
	}
	return out
}

// SelectorKind enumerates the ways a term of interest can be designated.
type SelectorKind string

const (
	// SelectBetweenMain picks a between-factor main effect.
	SelectBetweenMain SelectorKind = "between_main"
	// SelectInteraction picks a between × within interaction term.
	SelectInteraction SelectorKind = "interaction"
	// SelectNamed picks a term by its exact fitted name.
	SelectNamed SelectorKind = "named"
)

// TermSelector designates the coefficient whose p-value drives the power
// estimate. It is resolved once against the design's term-name scheme before
// the grid launches, so label drift fails fast instead of silently matching
// nothing replication after replication.
type TermSelector struct {
	Kind SelectorKind `json:"kind"`
	// BetweenLevel/WithinLevel narrow multi-level factors. Either may be
	// empty when the factor has exactly one non-reference level.
	BetweenLevel string `json:"between_level,omitempty"`
	WithinLevel  string `json:"within_level,omitempty"`
	// Term is the exact name for SelectNamed.
	Term string `json:"term,omitempty"`
}

// Resolve maps the selector onto its exact term name under the design's
// naming scheme.
func (s TermSelector) Resolve(spec design.Spec) (string, error) {
	switch s.Kind {
	case SelectNamed:
		if s.Term == "" {
			return "", core.NewInvalidParameterError("selector", "named selector has empty term")
		}
		return s.Term, nil
	case SelectBetweenMain:
		level, err := pickLevel(s.BetweenLevel, spec.Between)
		if err != nil {
			return "", err
		}
		return TermName(spec.Between.Name, level), nil
	case SelectInteraction:
		if spec.Within == nil {
			return "", core.NewInvalidParameterError("selector", "interaction selector on a between-only design")
		}
		bLevel, err := pickLevel(s.BetweenLevel, spec.Between)
		if err != nil {
			return "", err
		}
		wLevel, err := pickLevel(s.WithinLevel, *spec.Within)
		if err != nil {
			return "", err
		}
		return InteractionTermName(spec.Between.Name, bLevel, spec.Within.Name, wLevel), nil
	default:
		return "", core.NewInvalidParameterError("selector", fmt.Sprintf("unknown kind %q", s.Kind))
	}
}

func pickLevel(want string, f design.Factor) (string, error) {
	nonRef := f.NonReference()
	if want == "" {
		if len(nonRef) != 1 {
			return "", core.NewInvalidParameterError("selector",
				fmt.Sprintf("factor %q has %d non-reference levels, selector must name one", f.Name, len(nonRef)))
		}
		return nonRef[0], nil
	}
	if !f.HasLevel(want) {
		return "", core.NewInvalidParameterError("selector", fmt.Sprintf("level %q is not a level of factor %q", want, f.Name))
	}
	if want == f.Reference {
		return "", core.NewInvalidParameterError("selector", fmt.Sprintf("level %q is the reference of factor %q and has no coefficient", want, f.Name))
	}
	return want, nil
}
