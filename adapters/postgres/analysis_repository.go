// Package postgres persists fleet analyses in PostgreSQL.
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gorelia/ports"
)

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// EnsureSchema creates the analyses table if it does not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fleet_analyses (
			id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			systems INT NOT NULL,
			trend TEXT NOT NULL,
			payload JSONB NOT NULL
		)
	`)
	return err
}

// Save stores a completed analysis
func (r *AnalysisRepositoryImpl) Save(ctx context.Context, rec *ports.FleetAnalysisRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fleet_analyses (id, created_at, systems, trend, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.CreatedAt, rec.Systems, rec.Trend, rec.Payload)
	return err
}

// Get retrieves a stored analysis by ID
func (r *AnalysisRepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*ports.FleetAnalysisRecord, error) {
	var rec ports.FleetAnalysisRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, created_at, systems, trend, payload
		FROM fleet_analyses
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns summaries of stored analyses, newest first
func (r *AnalysisRepositoryImpl) List(ctx context.Context, limit int) ([]ports.AnalysisSummary, error) {
	summaries := []ports.AnalysisSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT id, created_at, systems, trend
		FROM fleet_analyses
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
