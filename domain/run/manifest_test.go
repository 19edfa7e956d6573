package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/internal/testkit"
)

func TestNewManifest(t *testing.T) {
	spec := testkit.TwoGroupSpec()
	grid := testkit.SmallGrid(100)

	m := NewManifest(spec, grid, "group:Alcohol", 0.05, 42, "v1")

	require.NoError(t, m.Validate())
	assert.False(t, core.ID(m.RunID).IsEmpty())
	assert.Equal(t, spec.Hash(), m.DesignHash)
	assert.Equal(t, int64(42), m.Seed)
	assert.False(t, m.CreatedAt.IsZero())

	// Two manifests over the same design share the fingerprint but not the id.
	other := NewManifest(spec, grid, "group:Alcohol", 0.05, 42, "v1")
	assert.Equal(t, m.DesignHash, other.DesignHash)
	assert.NotEqual(t, m.RunID, other.RunID)
}

func TestManifestValidate(t *testing.T) {
	valid := func() *Manifest {
		return NewManifest(testkit.TwoGroupSpec(), testkit.SmallGrid(10), "group:Alcohol", 0.05, 1, "v1")
	}

	tests := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"empty run id", func(m *Manifest) { m.RunID = "" }},
		{"empty design hash", func(m *Manifest) { m.DesignHash = "" }},
		{"empty term", func(m *Manifest) { m.Term = "" }},
		{"alpha at zero", func(m *Manifest) { m.Alpha = 0 }},
		{"alpha at one", func(m *Manifest) { m.Alpha = 1 }},
		{"broken grid", func(m *Manifest) { m.Grid = design.SampleSizeGrid{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			assert.ErrorIs(t, m.Validate(), core.ErrInvalidParameter)
		})
	}
}
