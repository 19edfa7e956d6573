// Package postgres persists completed power runs so curves can be compared
// across design revisions without re-simulating.
package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/domain/run"
	"gopower/internal/errors"
	"gopower/ports"
)

// RunRepositoryImpl implements ports.RunStore for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository connects and ensures the schema exists.
func NewRunRepository(url string) (ports.RunStore, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to run store", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.DatabaseError("failed to ensure run store schema", err)
	}
	return &RunRepositoryImpl{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS power_runs (
	run_id      TEXT PRIMARY KEY,
	design_hash TEXT NOT NULL,
	manifest    JSONB NOT NULL,
	curve       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS power_outcomes (
	run_id      TEXT NOT NULL REFERENCES power_runs(run_id) ON DELETE CASCADE,
	sample_size INT NOT NULL,
	replication INT NOT NULL,
	p_value     DOUBLE PRECISION,
	estimate    DOUBLE PRECISION,
	significant BOOLEAN NOT NULL,
	failed      BOOLEAN NOT NULL,
	error       TEXT,
	PRIMARY KEY (run_id, sample_size, replication)
);
`

// SaveRun stores the manifest, curve and every outcome in one transaction.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, manifest *run.Manifest, outcomes []power.ReplicationOutcome, curve power.Curve) error {
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return errors.DatabaseError("failed to encode manifest", err)
	}
	curveJSON, err := json.Marshal(curve)
	if err != nil {
		return errors.DatabaseError("failed to encode curve", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO power_runs (run_id, design_hash, manifest, curve, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, manifest.RunID, manifest.DesignHash, manifestJSON, curveJSON, manifest.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	for _, o := range outcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO power_outcomes (run_id, sample_size, replication, p_value, estimate, significant, failed, error)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		`, manifest.RunID, o.SampleSize, o.Replication, o.PValue, o.Estimate, o.Significant, o.Failed, o.Error)
		if err != nil {
			return errors.DatabaseError("failed to insert outcome", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetManifest retrieves a run manifest by ID.
func (r *RunRepositoryImpl) GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT manifest FROM power_runs WHERE run_id = $1`, runID)
	if err != nil {
		return nil, errors.DatabaseError("failed to load manifest", err)
	}
	var m run.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.DatabaseError("failed to decode manifest", err)
	}
	return &m, nil
}

// GetCurve retrieves a stored power curve by run ID.
func (r *RunRepositoryImpl) GetCurve(ctx context.Context, runID core.RunID) (power.Curve, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT curve FROM power_runs WHERE run_id = $1`, runID)
	if err != nil {
		return power.Curve{}, errors.DatabaseError("failed to load curve", err)
	}
	var c power.Curve
	if err := json.Unmarshal(raw, &c); err != nil {
		return power.Curve{}, errors.DatabaseError("failed to decode curve", err)
	}
	return c, nil
}

// ListRuns returns the most recent run manifests.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*run.Manifest, error) {
	if limit <= 0 {
		limit = 20
	}
	var raws [][]byte
	err := r.db.SelectContext(ctx, &raws, `
		SELECT manifest FROM power_runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	out := make([]*run.Manifest, 0, len(raws))
	for _, raw := range raws {
		var m run.Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, errors.DatabaseError("failed to decode manifest", err)
		}
		out = append(out, &m)
	}
	return out, nil
}
