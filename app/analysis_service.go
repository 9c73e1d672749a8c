// Package app wires the estimators into a fleet analysis workflow.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gorelia/domain/core"
	"gorelia/domain/recurrence"
	"gorelia/internal/logging"
	"gorelia/internal/mcf"
	"gorelia/internal/rocof"
	"gorelia/ports"
)

// ErrPersistenceDisabled is returned by Get and List when no repository
// is configured.
var ErrPersistenceDisabled = errors.New("analysis persistence is not configured")

// FleetAnalysis is the complete outcome of analyzing one fleet's repair
// histories.
type FleetAnalysis struct {
	ID           uuid.UUID                   `json:"id"`
	CreatedAt    time.Time                   `json:"created_at"`
	Confidence   float64                     `json:"confidence"`
	Systems      int                         `json:"systems"`
	Points       []recurrence.MCFPoint       `json:"points"`
	Audit        []recurrence.AuditRow       `json:"audit"`
	Model        *recurrence.PowerLawModel   `json:"model,omitempty"`
	FitError     string                      `json:"fit_error,omitempty"`
	SystemTrends map[string]recurrence.Trend `json:"system_trends,omitempty"`
}

// AnalysisService runs fleet analyses and optionally persists them.
// A nil repository disables persistence; Analyze still works.
type AnalysisService struct {
	repo ports.AnalysisRepository
	log  *logging.Logger
}

// NewAnalysisService creates the service. repo may be nil.
func NewAnalysisService(repo ports.AnalysisRepository, log *logging.Logger) *AnalysisService {
	if log == nil {
		log = logging.NewDefault()
	}
	return &AnalysisService{repo: repo, log: log}
}

// Analyze estimates the fleet MCF, then fits the power-law model and
// runs the per-system Laplace trend test concurrently. The parametric
// fit and trend tests are best-effort: a fleet too small to fit still
// yields a nonparametric result, with the fit failure reported in
// FitError.
func (s *AnalysisService) Analyze(ctx context.Context, histories []recurrence.RepairHistory, confidence float64) (*FleetAnalysis, error) {
	if confidence == 0 {
		confidence = 0.95
	}

	est, err := mcf.EstimateNonparametric(histories, confidence)
	if err != nil {
		return nil, err
	}

	analysis := &FleetAnalysis{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Confidence: confidence,
		Systems:    est.Systems,
		Points:     est.Points,
		Audit:      est.Audit,
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		model, fitErr := mcf.FitParametric(est.Points, confidence)
		if fitErr != nil {
			if core.IsInsufficientData(fitErr) || core.IsConvergenceError(fitErr) {
				s.log.Warn("parametric fit skipped: %v", fitErr)
				analysis.FitError = fitErr.Error()
				return nil
			}
			return fitErr
		}
		analysis.Model = model
		return nil
	})

	var mu sync.Mutex
	trends := make(map[string]recurrence.Trend)
	for _, h := range histories {
		h := h
		if len(h.Times) < 3 {
			// Final time is the censor age: fewer than two repairs
			// cannot carry a trend.
			continue
		}
		g.Go(func() error {
			res, trendErr := rocof.FromFailureTimes(h.Times[:len(h.Times)-1], rocof.Options{
				Confidence: confidence,
				TestEnd:    h.Times[len(h.Times)-1],
			})
			if trendErr != nil {
				s.log.Warn("trend test skipped for %s: %v", h.System, trendErr)
				return nil
			}
			mu.Lock()
			trends[h.System] = res.Trend
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(trends) > 0 {
		analysis.SystemTrends = trends
	}

	if s.repo != nil {
		if err := s.save(ctx, analysis); err != nil {
			// Persistence failure does not invalidate the analysis.
			s.log.Error("failed to persist analysis %s: %v", analysis.ID, err)
		}
	}

	s.log.Info("analyzed fleet of %d systems: %d MCF points", analysis.Systems, len(analysis.Points))
	return analysis, nil
}

func (s *AnalysisService) save(ctx context.Context, analysis *FleetAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	trend := string(recurrence.TrendConstant)
	if analysis.Model != nil {
		trend = string(analysis.Model.Trend)
	}
	return s.repo.Save(ctx, &ports.FleetAnalysisRecord{
		ID:        analysis.ID,
		CreatedAt: analysis.CreatedAt,
		Systems:   analysis.Systems,
		Trend:     trend,
		Payload:   payload,
	})
}

// Get loads a stored analysis by ID.
func (s *AnalysisService) Get(ctx context.Context, id uuid.UUID) (*FleetAnalysis, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var analysis FleetAnalysis
	if err := json.Unmarshal(record.Payload, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// List returns summaries of stored analyses, newest first.
func (s *AnalysisService) List(ctx context.Context, limit int) ([]ports.AnalysisSummary, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}
