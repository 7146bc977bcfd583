// Package postgres persists fitted-model snapshots behind
// ports.ModelStorePort.
package postgres

import (
	"context"
	"database/sql"

	"goglam/domain/model"
	"goglam/internal/errors"
	"goglam/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ModelStoreImpl implements ModelStorePort for PostgreSQL. Snapshots are
// stored as JSONB so schema migrations never touch fitted parameters.
type ModelStoreImpl struct {
	db *sqlx.DB
}

// NewModelStore creates a new PostgreSQL model store.
func NewModelStore(db *sqlx.DB) ports.ModelStorePort {
	return &ModelStoreImpl{db: db}
}

// Connect opens a PostgreSQL connection and verifies it.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.StoreError("failed to connect to postgres", err)
	}
	return db, nil
}

// EnsureSchema creates the models table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS forecast_models (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			snapshot JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.StoreError("failed to ensure schema", err)
	}
	return nil
}

// SaveModel inserts or updates a stored model by id.
func (s *ModelStoreImpl) SaveModel(ctx context.Context, m *ports.StoredModel) error {
	snapshotJSON, err := model.MarshalSnapshot(m.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forecast_models (id, name, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			snapshot = EXCLUDED.snapshot,
			updated_at = NOW()`,
		m.ID, m.Name, snapshotJSON)
	if err != nil {
		return errors.StoreError("failed to save model", err)
	}
	return nil
}

// GetModel retrieves a stored model by id.
func (s *ModelStoreImpl) GetModel(ctx context.Context, id uuid.UUID) (*ports.StoredModel, error) {
	return s.getModel(ctx, `
		SELECT id, name, snapshot, created_at, updated_at
		FROM forecast_models WHERE id = $1`, id)
}

// GetModelByName retrieves a stored model by its unique name.
func (s *ModelStoreImpl) GetModelByName(ctx context.Context, name string) (*ports.StoredModel, error) {
	return s.getModel(ctx, `
		SELECT id, name, snapshot, created_at, updated_at
		FROM forecast_models WHERE name = $1`, name)
}

func (s *ModelStoreImpl) getModel(ctx context.Context, query string, arg interface{}) (*ports.StoredModel, error) {
	var (
		out          ports.StoredModel
		snapshotJSON []byte
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&out.ID, &out.Name, &snapshotJSON, &out.CreatedAt, &out.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("model")
	}
	if err != nil {
		return nil, errors.StoreError("failed to load model", err)
	}
	snap, err := model.UnmarshalSnapshot(snapshotJSON)
	if err != nil {
		return nil, err
	}
	out.Snapshot = snap
	return &out, nil
}

// ListModels returns metadata for all stored models, newest first. Snapshot
// payloads are included; callers needing only names can ignore them.
func (s *ModelStoreImpl) ListModels(ctx context.Context) ([]*ports.StoredModel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, snapshot, created_at, updated_at
		FROM forecast_models ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.StoreError("failed to list models", err)
	}
	defer rows.Close()

	var out []*ports.StoredModel
	for rows.Next() {
		var (
			m            ports.StoredModel
			snapshotJSON []byte
		)
		if err := rows.Scan(&m.ID, &m.Name, &snapshotJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.StoreError("failed to scan model row", err)
		}
		snap, err := model.UnmarshalSnapshot(snapshotJSON)
		if err != nil {
			return nil, err
		}
		m.Snapshot = snap
		out = append(out, &m)
	}
	return out, rows.Err()
}

// DeleteModel removes a stored model by id.
func (s *ModelStoreImpl) DeleteModel(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forecast_models WHERE id = $1`, id)
	if err != nil {
		return errors.StoreError("failed to delete model", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("model")
	}
	return nil
}
