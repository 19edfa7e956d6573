// Package app orchestrates the simulation pipeline: dataset generation,
// replicated model fitting across the sample-size grid, and aggregation into
// power curves.
package app

import (
	"fmt"

	"gopower/adapters/rng"
	"gopower/domain/core"
	"gopower/domain/dataset"
	"gopower/domain/design"
	"gopower/ports"
)

// Generator builds one synthetic dataset per call from a study design and a
// deterministic variate stream.
type Generator struct {
	source ports.VariateSource
}

// NewGenerator creates a generator over a variate source.
func NewGenerator(source ports.VariateSource) *Generator {
	return &Generator{source: source}
}

// Generate simulates nPerCell subjects per design cell. Equal
// (spec, nPerCell, streamName, seed) always produce bit-identical datasets.
//
// Between-only designs draw every observation as an independent subject.
// Within-subject designs draw each subject's first within level
// independently and every later level as a variate correlated with it at the
// design's within correlation. The confounder, when specified, is drawn once
// per subject against the designated anchor level, truncated, optionally
// rounded, and broadcast to all of that subject's rows.
func (g *Generator) Generate(spec design.Spec, nPerCell int, streamName string, seed int64) (*dataset.Simulated, error) {
	if nPerCell <= 0 {
		return nil, core.NewInvalidParameterError("n_per_cell", fmt.Sprintf("must be > 0, got %d", nPerCell))
	}
	stream, err := g.source.Stream(streamName, seed)
	if err != nil {
		return nil, err
	}

	out := &dataset.Simulated{BetweenFactor: spec.Between.Name}
	if spec.Within != nil {
		out.WithinFactor = spec.Within.Name
	}

	for _, betweenLevel := range spec.Between.Levels {
		if spec.Within == nil {
			if err := g.generateBetweenCell(spec, betweenLevel, nPerCell, stream, out); err != nil {
				return nil, err
			}
			continue
		}
		if err := g.generateSubjects(spec, betweenLevel, nPerCell, stream, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// generateBetweenCell emits nPerCell independent subjects for one group.
func (g *Generator) generateBetweenCell(spec design.Spec, betweenLevel string, nPerCell int, stream ports.VariateStream, out *dataset.Simulated) error {
	values, err := stream.Normal(nPerCell, spec.CellMean(betweenLevel, ""), spec.CellSD(betweenLevel, ""))
	if err != nil {
		return err
	}

	var confounder []float64
	if spec.Confounder != nil {
		confounder, err = g.generateConfounder(spec, values, stream)
		if err != nil {
			return err
		}
	}

	for i, v := range values {
		obs := dataset.Observation{
			Subject: subjectID(betweenLevel, i),
			Between: betweenLevel,
			Outcome: v,
		}
		if confounder != nil {
			obs.Covariates = map[string]float64{spec.Confounder.Name: confounder[i]}
		}
		out.Observations = append(out.Observations, obs)
	}
	return nil
}

// generateSubjects emits nPerCell subjects for one group, each with one row
// per within level drawn correlated with the anchor (first) level.
func (g *Generator) generateSubjects(spec design.Spec, betweenLevel string, nPerCell int, stream ports.VariateStream, out *dataset.Simulated) error {
	levels := spec.Within.Levels
	anchor := levels[0]

	byLevel := make(map[string][]float64, len(levels))
	anchorValues, err := stream.Normal(nPerCell, spec.CellMean(betweenLevel, anchor), spec.CellSD(betweenLevel, anchor))
	if err != nil {
		return err
	}
	byLevel[anchor] = anchorValues
	for _, level := range levels[1:] {
		correlated, err := stream.CorrelatedNormal(anchorValues, spec.CellMean(betweenLevel, level), spec.CellSD(betweenLevel, level), spec.WithinR)
		if err != nil {
			return err
		}
		byLevel[level] = correlated
	}

	var confounder []float64
	if spec.Confounder != nil {
		confounder, err = g.generateConfounder(spec, byLevel[spec.Confounder.CorrelateWith], stream)
		if err != nil {
			return err
		}
	}

	for i := 0; i < nPerCell; i++ {
		subject := subjectID(betweenLevel, i)
		var covariates map[string]float64
		if confounder != nil {
			covariates = map[string]float64{spec.Confounder.Name: confounder[i]}
		}
		for _, level := range levels {
			out.Observations = append(out.Observations, dataset.Observation{
				Subject:    subject,
				Between:    betweenLevel,
				Within:     level,
				Outcome:    byLevel[level][i],
				Covariates: covariates,
			})
		}
	}
	return nil
}

// generateConfounder draws the per-subject confounder correlated with the
// anchor outcomes, then truncates and optionally rounds it.
func (g *Generator) generateConfounder(spec design.Spec, anchor []float64, stream ports.VariateStream) ([]float64, error) {
	c := spec.Confounder
	values, err := stream.CorrelatedNormal(anchor, c.Mean, c.SD, c.R)
	if err != nil {
		return nil, err
	}
	values = rng.Truncate(values, c.Min, c.Max)
	if c.RoundToInt {
		values = rng.RoundToInt(values)
	}
	return values, nil
}

func subjectID(betweenLevel string, i int) core.SubjectID {
	return core.SubjectID(fmt.Sprintf("s-%s-%04d", betweenLevel, i+1))
}
