package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gorelia/adapters/excel"
	"gorelia/app"
	"gorelia/domain/core"
	"gorelia/domain/recurrence"
	"gorelia/internal/mcf"
	"gorelia/internal/report"
)

// fleetRequest is the JSON body shared by the analysis endpoints.
// Histories takes precedence; Series is the bare-array shorthand with
// systems labeled by position.
type fleetRequest struct {
	Histories  []recurrence.RepairHistory `json:"histories"`
	Series     [][]float64                `json:"series"`
	Confidence float64                    `json:"confidence"`
}

func (req *fleetRequest) fleet() []recurrence.RepairHistory {
	if len(req.Histories) > 0 {
		return req.Histories
	}
	return recurrence.FromSeries(req.Series...)
}

func (req *fleetRequest) confidence() float64 {
	if req.Confidence == 0 {
		return 0.95
	}
	return req.Confidence
}

func (a *App) decodeFleetRequest(w http.ResponseWriter, r *http.Request) (*fleetRequest, bool) {
	var req fleetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, core.NewInvalidInputError("body", "invalid JSON: "+err.Error()))
		return nil, false
	}
	return &req, true
}

func (a *App) handleNonparametric(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeFleetRequest(w, r)
	if !ok {
		return
	}
	result, err := mcf.EstimateNonparametric(req.fleet(), req.confidence())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *App) handleParametric(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeFleetRequest(w, r)
	if !ok {
		return
	}
	est, err := mcf.EstimateNonparametric(req.fleet(), req.confidence())
	if err != nil {
		a.writeError(w, err)
		return
	}
	model, err := mcf.FitParametric(est.Points, req.confidence())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":  model,
		"points": est.Points,
	})
}

func (a *App) handleFleetAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeFleetRequest(w, r)
	if !ok {
		return
	}
	analysis, err := a.service.Analyze(r.Context(), req.fleet(), req.confidence())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, analysis)
}

func (a *App) handleFleetUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.writeError(w, core.NewInvalidInputError("body", "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, core.NewInvalidInputError("file", "missing file field"))
		return
	}
	defer file.Close()

	confidence := 0.95
	if v := r.FormValue("confidence"); v != "" {
		confidence, err = strconv.ParseFloat(v, 64)
		if err != nil {
			a.writeError(w, core.NewInvalidInputError("confidence", "must be a number"))
			return
		}
	}

	// The excelize and csv readers want a file on disk.
	tmp, err := os.CreateTemp("", "fleet-*"+filepath.Ext(header.Filename))
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.ReadFrom(file); err != nil {
		tmp.Close()
		a.writeError(w, err)
		return
	}
	tmp.Close()

	fleet, err := excel.NewFleetReader(tmp.Name()).Read()
	if err != nil {
		a.writeError(w, err)
		return
	}
	analysis, err := a.service.Analyze(r.Context(), fleet, confidence)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, analysis)
}

func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	summaries, err := a.service.List(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summaries)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.loadAnalysis(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, analysis)
}

func (a *App) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.loadAnalysis(w, r)
	if !ok {
		return
	}
	fleet := report.Fleet{
		Confidence:   analysis.Confidence,
		Systems:      analysis.Systems,
		Points:       analysis.Points,
		Audit:        analysis.Audit,
		Model:        analysis.Model,
		SystemTrends: analysis.SystemTrends,
	}

	switch r.URL.Query().Get("format") {
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report.Markdown(fleet)))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(report.AuditTable(fleet.Audit)))
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(report.HTML(fleet))
	}
}

func (a *App) loadAnalysis(w http.ResponseWriter, r *http.Request) (*app.FleetAnalysis, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, core.NewInvalidInputError("id", "must be a UUID"))
		return nil, false
	}
	analysis, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	return analysis, true
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsInvalidInput(err):
		status = http.StatusBadRequest
	case core.IsInsufficientData(err), core.IsDegenerateInput(err), core.IsConvergenceError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrPersistenceDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
