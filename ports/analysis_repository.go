package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnalysisRepository persists completed fleet analyses
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *FleetAnalysisRecord) error
	Get(ctx context.Context, id uuid.UUID) (*FleetAnalysisRecord, error)
	List(ctx context.Context, limit int) ([]AnalysisSummary, error)
}

// FleetAnalysisRecord is the persisted form of an analysis: identity
// plus the full result payload as JSON.
type FleetAnalysisRecord struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Systems   int       `db:"systems"`
	Trend     string    `db:"trend"`
	Payload   []byte    `db:"payload"`
}

// AnalysisSummary is the listing view of a stored analysis
type AnalysisSummary struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Systems   int       `db:"systems" json:"systems"`
	Trend     string    `db:"trend" json:"trend"`
}
