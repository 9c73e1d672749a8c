package report

import (
	"strings"
	"testing"

	"gorelia/domain/recurrence"
)

func sampleFleet() Fleet {
	return Fleet{
		Confidence: 0.95,
		Systems:    2,
		Points: []recurrence.MCFPoint{
			{Time: 5, MCF: 0.5, Variance: 0.125, Lower: 0.28, Upper: 0.89},
			{Time: 12, MCF: 1.5, Variance: 0.375, Lower: 0.97, Upper: 2.31},
		},
		Audit: []recurrence.AuditRow{
			{Kind: recurrence.Failure, Time: 5, System: "unit-01", Defined: true, MCF: 0.5, Variance: 0.125, Lower: 0.28, Upper: 0.89},
			{Kind: recurrence.Censored, Time: 8, System: "unit-02"},
			{Kind: recurrence.Failure, Time: 12, System: "unit-01", Defined: true, MCF: 1.5, Variance: 0.375, Lower: 0.97, Upper: 2.31},
		},
		Model: &recurrence.PowerLawModel{
			Alpha: 9.5, Beta: 1.4,
			AlphaSE: 0.8, BetaSE: 0.1,
			AlphaLower: 8.1, AlphaUpper: 11.2,
			BetaLower: 1.2, BetaUpper: 1.6,
			Confidence: 0.95,
			Trend:      recurrence.TrendWorsening,
		},
		SystemTrends: map[string]recurrence.Trend{
			"unit-02": recurrence.TrendConstant,
			"unit-01": recurrence.TrendWorsening,
		},
	}
}

func TestAuditTable(t *testing.T) {
	table := AuditTable(sampleFleet().Audit)

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), table)
	}
	if !strings.HasPrefix(lines[0], "state") || !strings.Contains(lines[0], "MCF_upper") {
		t.Fatalf("unexpected header: %q", lines[0])
	}

	censored := strings.Fields(lines[2])
	if len(censored) != 2 || censored[0] != "C" || censored[1] != "8" {
		t.Fatalf("censored row must carry only state and time, got %q", lines[2])
	}
	failure := strings.Fields(lines[3])
	if len(failure) != 6 || failure[0] != "F" {
		t.Fatalf("failure row must carry all six columns, got %q", lines[3])
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleFleet())

	for _, want := range []string{
		"# Fleet Recurrence Report",
		"Systems observed: 2",
		"Confidence level: 95%",
		"Final MCF: 1.5 at time 12",
		"## Power-Law Model",
		"Fleet trend: **worsening**",
		"## Per-System Trend",
		"## MCF Audit Trail",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}

	// Per-system rows come out in stable sorted order.
	if strings.Index(md, "unit-01") > strings.Index(md, "unit-02") {
		t.Fatal("per-system trend rows must be sorted by system label")
	}
}

func TestMarkdown_OmitsEmptySections(t *testing.T) {
	f := sampleFleet()
	f.Model = nil
	f.SystemTrends = nil
	md := Markdown(f)

	if strings.Contains(md, "## Power-Law Model") || strings.Contains(md, "## Per-System Trend") {
		t.Fatalf("sections without data must be omitted:\n%s", md)
	}
}

func TestHTML(t *testing.T) {
	page := string(HTML(sampleFleet()))

	for _, want := range []string{"<html>", "<h1", "Fleet Recurrence Report", "<table>"} {
		if !strings.Contains(page, want) {
			t.Fatalf("HTML page missing %q", want)
		}
	}
}
