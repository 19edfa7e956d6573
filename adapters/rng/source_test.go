package rng

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/domain/core"
)

func TestStream_Deterministic(t *testing.T) {
	src := NewSource()

	s1, err := src.Stream("cell/n=30/rep=1", 123)
	require.NoError(t, err)
	s2, err := src.Stream("cell/n=30/rep=1", 123)
	require.NoError(t, err)

	a, err := s1.Normal(1000, 400, 100)
	require.NoError(t, err)
	b, err := s2.Normal(1000, 400, 100)
	require.NoError(t, err)
	assert.Equal(t, a, b, "equal (name, seed) must be bit-reproducible")
}

func TestStream_IndependentAcrossNamesAndSeeds(t *testing.T) {
	src := NewSource()

	s1, _ := src.Stream("cell/n=30/rep=1", 123)
	s2, _ := src.Stream("cell/n=30/rep=2", 123)
	s3, _ := src.Stream("cell/n=30/rep=1", 124)

	a, _ := s1.Normal(100, 0, 1)
	b, _ := s2.Normal(100, 0, 1)
	c, _ := s3.Normal(100, 0, 1)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStream_InvalidParameters(t *testing.T) {
	src := NewSource()

	_, err := src.Stream("", 1)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	s, _ := src.Stream("x", 1)
	_, err = s.Normal(0, 0, 1)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.Normal(-5, 0, 1)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.Normal(5, 0, -1)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = s.CorrelatedNormal(nil, 0, 1, 0.5)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.CorrelatedNormal([]float64{1, 2}, 0, 1, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.CorrelatedNormal([]float64{1, 2}, 0, -1, 0.5)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestNormal_Moments(t *testing.T) {
	src := NewSource()
	s, _ := src.Stream("moments", 7)

	values, err := s.Normal(100000, 400, 100)
	require.NoError(t, err)

	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationSample(values)
	assert.InDelta(t, 400, mean, 1.5)
	assert.InDelta(t, 100, sd, 1.5)
}

func TestCorrelatedNormal_EmpiricalCorrelation(t *testing.T) {
	src := NewSource()
	s, _ := src.Stream("correlated", 99)

	x, err := s.Normal(100000, 400, 100)
	require.NoError(t, err)
	y, err := s.CorrelatedNormal(x, 35, 10, 0.2)
	require.NoError(t, err)
	require.Len(t, y, len(x))

	r, err := stats.Pearson(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, r, 0.02)

	mean, _ := stats.Mean(y)
	sd, _ := stats.StandardDeviationSample(y)
	assert.InDelta(t, 35, mean, 0.2)
	assert.InDelta(t, 10, sd, 0.2)
}

func TestCorrelatedNormal_DegenerateAnchor(t *testing.T) {
	src := NewSource()
	s, _ := src.Stream("flat", 5)

	y, err := s.CorrelatedNormal([]float64{3, 3, 3, 3}, 0, 1, 0.9)
	require.NoError(t, err)
	assert.Len(t, y, 4)
}

func TestTruncate(t *testing.T) {
	got := Truncate([]float64{10, 18, 40, 70}, 18, 65)
	assert.Equal(t, []float64{18, 18, 40, 65}, got)
}

func TestRoundToInt(t *testing.T) {
	got := RoundToInt([]float64{34.4, 34.5, -1.2})
	assert.Equal(t, []float64{34, 35, -1}, got)
}
