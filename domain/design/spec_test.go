package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/domain/core"
)

func twoGroup() Spec {
	return Spec{
		Between: NewFactor("group", "Control", "Alcohol"),
		Means:   []float64{400, 425},
		SD:      100,
	}
}

func prePost() Spec {
	within := NewFactor("measurement", "Pre", "Post")
	return Spec{
		Between: NewFactor("group", "Control", "Alcohol"),
		Within:  &within,
		Means:   []float64{400, 400, 400, 425},
		SD:      100,
		WithinR: 0.5,
	}
}

func TestSpecValidate_Valid(t *testing.T) {
	require.NoError(t, twoGroup().Validate())
	require.NoError(t, prePost().Validate())
}

func TestSpecValidate_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"one level", func(s *Spec) { s.Between.Levels = []string{"Control"} }},
		{"duplicate level", func(s *Spec) { s.Between.Levels = []string{"Control", "Control"} }},
		{"bad reference", func(s *Spec) { s.Between.Reference = "Placebo" }},
		{"wrong mean count", func(s *Spec) { s.Means = []float64{400} }},
		{"zero sd", func(s *Spec) { s.SD = 0 }},
		{"negative sd", func(s *Spec) { s.SD = -1 }},
		{"wrong cell sd count", func(s *Spec) { s.CellSDs = []float64{1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := twoGroup()
			tc.mutate(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidParameter)
		})
	}
}

func TestSpecValidate_WithinInvalid(t *testing.T) {
	spec := prePost()
	spec.WithinR = 1.5
	assert.ErrorIs(t, spec.Validate(), core.ErrInvalidParameter)

	spec = prePost()
	spec.Within.Name = "group"
	assert.ErrorIs(t, spec.Validate(), core.ErrInvalidParameter)
}

func TestSpecValidate_Confounder(t *testing.T) {
	spec := prePost()
	spec.Confounder = &ConfounderSpec{
		Name: "age", CorrelateWith: "Pre", R: 0.2, Mean: 35, SD: 10, Min: 18, Max: 65,
	}
	require.NoError(t, spec.Validate())

	spec.Confounder.CorrelateWith = "Mid"
	assert.ErrorIs(t, spec.Validate(), core.ErrInvalidParameter)

	spec.Confounder.CorrelateWith = "Pre"
	spec.Confounder.Min, spec.Confounder.Max = 65, 18
	assert.ErrorIs(t, spec.Validate(), core.ErrInvalidParameter)

	spec.Confounder.Min, spec.Confounder.Max = 18, 65
	spec.Confounder.Name = "group"
	assert.ErrorIs(t, spec.Validate(), core.ErrInvalidParameter)
}

func TestCellIndexing(t *testing.T) {
	spec := prePost()
	assert.Equal(t, 4, spec.CellCount())
	assert.Equal(t, 400.0, spec.CellMean("Control", "Pre"))
	assert.Equal(t, 425.0, spec.CellMean("Alcohol", "Post"))

	spec.CellSDs = []float64{10, 20, 30, 40}
	assert.Equal(t, 40.0, spec.CellSD("Alcohol", "Post"))

	between := twoGroup()
	assert.Equal(t, 2, between.CellCount())
	assert.Equal(t, []string{""}, between.WithinLevels())
	assert.Equal(t, 425.0, between.CellMean("Alcohol", ""))
}

func TestFactorNonReference(t *testing.T) {
	f := NewFactor("group", "Control", "Alcohol", "Placebo")
	assert.Equal(t, "Control", f.Reference)
	assert.Equal(t, []string{"Alcohol", "Placebo"}, f.NonReference())
}

func TestSpecHash_Deterministic(t *testing.T) {
	a, b := prePost(), prePost()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Means[3] = 430
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestNewArithmeticGrid(t *testing.T) {
	g, err := NewArithmeticGrid(10, 50, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 50}, g.Sizes)
	assert.Equal(t, 10, g.Min())
	assert.Equal(t, 50, g.Max())
	assert.Equal(t, 300, g.CellCount())

	_, err = NewArithmeticGrid(50, 10, 10, 100)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = NewArithmeticGrid(10, 50, 0, 100)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = NewArithmeticGrid(10, 50, 10, 0)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestGridValidate(t *testing.T) {
	assert.ErrorIs(t, SampleSizeGrid{}.Validate(), core.ErrInvalidParameter)
	assert.ErrorIs(t, SampleSizeGrid{Sizes: []int{0}, Replications: 1}.Validate(), core.ErrInvalidParameter)
	assert.ErrorIs(t, SampleSizeGrid{Sizes: []int{10, 10}, Replications: 1}.Validate(), core.ErrInvalidParameter)
	assert.NoError(t, SampleSizeGrid{Sizes: []int{10, 20}, Replications: 1}.Validate())
}
