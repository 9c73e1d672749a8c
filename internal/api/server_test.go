package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"gorelia/app"
	"gorelia/internal/mcf"
	"gorelia/internal/testkit"
	"gorelia/ports"
)

type memoryRepo struct {
	records map[uuid.UUID]*ports.FleetAnalysisRecord
	order   []uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[uuid.UUID]*ports.FleetAnalysisRecord)}
}

func (m *memoryRepo) Save(_ context.Context, rec *ports.FleetAnalysisRecord) error {
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*ports.FleetAnalysisRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rec, nil
}

func (m *memoryRepo) List(_ context.Context, limit int) ([]ports.AnalysisSummary, error) {
	var out []ports.AnalysisSummary
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.records[m.order[i]]
		out = append(out, ports.AnalysisSummary{ID: rec.ID, CreatedAt: rec.CreatedAt, Systems: rec.Systems, Trend: rec.Trend})
	}
	return out, nil
}

func newTestServer(t *testing.T, repo ports.AnalysisRepository) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewApp(app.NewAnalysisService(repo, nil), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestNonparametricEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/mcf/nonparametric", `{"series":[[5,10,15,17]]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result mcf.NonparametricResult
	decode(t, resp, &result)

	if result.Systems != 1 || len(result.Points) != 3 {
		t.Fatalf("unexpected result: systems=%d points=%d", result.Systems, len(result.Points))
	}
	if result.Points[2].MCF != 3 {
		t.Fatalf("expected MCF 3 at the last repair, got %g", result.Points[2].MCF)
	}
}

func TestNonparametricEndpoint_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/mcf/nonparametric", `not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/mcf/nonparametric", `{"series":[[5,-10]]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative time, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/mcf/nonparametric", `{"series":[[5,10,15,17]],"confidence":2}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for confidence out of range, got %d", resp.StatusCode)
	}
}

func TestParametricEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	history := testkit.PowerLawHistory(30, 2.0, 25)
	body, _ := json.Marshal(map[string]interface{}{"series": [][]float64{history.Times}})

	resp := postJSON(t, srv.URL+"/api/mcf/parametric", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Model struct {
			Beta  float64 `json:"beta"`
			Trend string  `json:"trend"`
		} `json:"model"`
	}
	decode(t, resp, &payload)
	if payload.Model.Trend != "worsening" {
		t.Fatalf("expected worsening trend, got %q (beta %g)", payload.Model.Trend, payload.Model.Beta)
	}

	resp = postJSON(t, srv.URL+"/api/mcf/parametric", `{"series":[[5,10]]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a single-point fleet, got %d", resp.StatusCode)
	}
}

func TestFleetAnalyzeAndRetrieve(t *testing.T) {
	srv := newTestServer(t, newMemoryRepo())

	fleet := testkit.GenerateFleet(testkit.FleetConfig{Systems: 10, Alpha: 50, Beta: 1.8, Horizon: 400, Seed: 7})
	body, _ := json.Marshal(map[string]interface{}{"histories": fleet})

	resp := postJSON(t, srv.URL+"/api/fleet/analyze", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var analysis app.FleetAnalysis
	decode(t, resp, &analysis)
	if analysis.Model == nil {
		t.Fatal("expected a fitted model")
	}

	listResp, err := http.Get(srv.URL + "/api/analyses")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var summaries []ports.AnalysisSummary
	decode(t, listResp, &summaries)
	if len(summaries) != 1 || summaries[0].ID != analysis.ID {
		t.Fatalf("unexpected listing: %+v", summaries)
	}

	getResp, err := http.Get(srv.URL + "/api/analyses/" + analysis.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var loaded app.FleetAnalysis
	decode(t, getResp, &loaded)
	if loaded.ID != analysis.ID || len(loaded.Points) != len(analysis.Points) {
		t.Fatal("stored analysis does not match the analyzed one")
	}
}

func TestAnalysisReportFormats(t *testing.T) {
	srv := newTestServer(t, newMemoryRepo())

	fleet := testkit.GenerateFleet(testkit.FleetConfig{Systems: 10, Alpha: 50, Beta: 1.8, Horizon: 400, Seed: 7})
	body, _ := json.Marshal(map[string]interface{}{"histories": fleet})
	resp := postJSON(t, srv.URL+"/api/fleet/analyze", string(body))
	var analysis app.FleetAnalysis
	decode(t, resp, &analysis)

	cases := []struct {
		format string
		want   string
	}{
		{"", "<html>"},
		{"?format=md", "# Fleet Recurrence Report"},
		{"?format=text", "state"},
	}
	for _, tc := range cases {
		r, err := http.Get(srv.URL + "/api/analyses/" + analysis.ID.String() + "/report" + tc.format)
		if err != nil {
			t.Fatalf("report %q: %v", tc.format, err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		r.Body.Close()
		if r.StatusCode != http.StatusOK || !strings.Contains(buf.String(), tc.want) {
			t.Fatalf("report %q: status %d, missing %q", tc.format, r.StatusCode, tc.want)
		}
	}
}

func TestGetAnalysis_Errors(t *testing.T) {
	srv := newTestServer(t, newMemoryRepo())

	resp, err := http.Get(srv.URL + "/api/analyses/" + uuid.NewString())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ID, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/analyses/not-a-uuid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed ID, got %d", resp.StatusCode)
	}
}

func TestListAnalyses_WithoutRepository(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/analyses")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without persistence, got %d", resp.StatusCode)
	}
}

func TestFleetUpload(t *testing.T) {
	srv := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "fleet.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fmt.Fprint(fw, "unit-01,5,10,15,17\nunit-02,6,13,17\n")
	mw.WriteField("confidence", "0.90")
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/fleet/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var analysis app.FleetAnalysis
	decode(t, resp, &analysis)
	if analysis.Systems != 2 || analysis.Confidence != 0.90 {
		t.Fatalf("unexpected analysis: systems=%d confidence=%g", analysis.Systems, analysis.Confidence)
	}
}
