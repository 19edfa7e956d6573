// Package dataset holds the simulated observations a single replication
// fits its model against.
package dataset

import "gopower/domain/core"

// Observation is one simulated outcome row. For within-subject designs the
// same SubjectID appears once per within level; for between-only designs
// every observation is an independent subject.
type Observation struct {
	Subject    core.SubjectID     `json:"subject"`
	Between    string             `json:"between"`
	Within     string             `json:"within,omitempty"`
	Outcome    float64            `json:"outcome"`
	Covariates map[string]float64 `json:"covariates,omitempty"`
}

// Simulated is an ordered collection of observations produced by one
// generator call. Append-only during generation, immutable afterwards.
type Simulated struct {
	BetweenFactor string        `json:"between_factor"`
	WithinFactor  string        `json:"within_factor,omitempty"`
	Observations  []Observation `json:"observations"`
}

// Len returns the number of observations.
func (d *Simulated) Len() int { return len(d.Observations) }

// Outcomes returns the outcome column in row order.
func (d *Simulated) Outcomes() []float64 {
	out := make([]float64, len(d.Observations))
	for i, o := range d.Observations {
		out[i] = o.Outcome
	}
	return out
}

// Covariate returns the named covariate column in row order. The second
// return is false when any row lacks the covariate.
func (d *Simulated) Covariate(name string) ([]float64, bool) {
	out := make([]float64, len(d.Observations))
	for i, o := range d.Observations {
		v, ok := o.Covariates[name]
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Subjects returns the distinct subject IDs in first-appearance order.
func (d *Simulated) Subjects() []core.SubjectID {
	seen := make(map[core.SubjectID]bool, len(d.Observations))
	var out []core.SubjectID
	for _, o := range d.Observations {
		if !seen[o.Subject] {
			seen[o.Subject] = true
			out = append(out, o.Subject)
		}
	}
	return out
}

// CellOutcomes returns the outcomes of one design cell in row order.
func (d *Simulated) CellOutcomes(betweenLevel, withinLevel string) []float64 {
	var out []float64
	for _, o := range d.Observations {
		if o.Between == betweenLevel && o.Within == withinLevel {
			out = append(out, o.Outcome)
		}
	}
	return out
}
