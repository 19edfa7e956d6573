package ports

import (
	"context"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/domain/run"
)

// RunStore persists completed runs for later inspection. Persistence is
// optional: the engine itself never requires a store.
type RunStore interface {
	SaveRun(ctx context.Context, manifest *run.Manifest, outcomes []power.ReplicationOutcome, curve power.Curve) error
	GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error)
	GetCurve(ctx context.Context, runID core.RunID) (power.Curve, error)
	ListRuns(ctx context.Context, limit int) ([]*run.Manifest, error)
}
