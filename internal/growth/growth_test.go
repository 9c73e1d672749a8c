package growth

import (
	"math"
	"testing"

	"gorelia/domain/core"
)

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %.9f, want %.9f (tol %g)", name, got, want, tol)
	}
}

func TestFit_DuaneFlatMTBF(t *testing.T) {
	// Equally spaced failures keep the cumulative MTBF flat at 10, so the
	// Duane slope is zero and both demonstrated MTBFs collapse to 10.
	res, err := Fit([]float64{10, 20, 30}, Options{Model: Duane})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	approx(t, "alpha", res.Alpha, 0, 1e-9)
	approx(t, "A", res.A, 0.1, 1e-9)
	approx(t, "DMTBF cumulative", res.DMTBFCumulative, 10, 1e-9)
	approx(t, "DMTBF instantaneous", res.DMTBFInstantaneous, 10, 1e-9)
	approx(t, "DFI cumulative", res.DFICumulative, 0.1, 1e-9)
	approx(t, "DFI instantaneous", res.DFIInstantaneous, 0.1, 1e-9)
}

func TestFit_CrowAMSAA(t *testing.T) {
	res, err := Fit([]float64{10, 20, 30}, Options{Model: CrowAMSAA})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	approx(t, "beta", res.Beta, 1.994578208827535, 1e-9)
	approx(t, "lambda", res.Lambda, 0.0033953721981414544, 1e-12)
	approx(t, "growth rate", res.GrowthRate, 1-1.994578208827535, 1e-9)
	approx(t, "DMTBF instantaneous", res.DMTBFInstantaneous, 5.013591322587576, 1e-9)
	approx(t, "DMTBF cumulative", res.DMTBFCumulative, 10, 1e-9)

	if math.Abs(res.DFIInstantaneous*res.DMTBFInstantaneous-1) > 1e-12 {
		t.Fatal("instantaneous MTBF and failure intensity must be reciprocal")
	}
}

func TestFit_TimeToTarget(t *testing.T) {
	res, err := Fit([]float64{10, 20, 30}, Options{Model: CrowAMSAA, TargetMTBF: 3})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if res.TimeToTarget <= 0 {
		t.Fatalf("expected positive time to target, got %g", res.TimeToTarget)
	}
	// Worsening system (beta > 1): cumulative MTBF decays with time, so a
	// lower target is reached later.
	lower, err := Fit([]float64{10, 20, 30}, Options{Model: CrowAMSAA, TargetMTBF: 2})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if lower.TimeToTarget <= res.TimeToTarget {
		t.Fatalf("expected later target time for lower MTBF target: %g vs %g", lower.TimeToTarget, res.TimeToTarget)
	}
}

func TestFit_Validation(t *testing.T) {
	if _, err := Fit([]float64{10}, Options{}); !core.IsInsufficientData(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
	if _, err := Fit([]float64{0, 10}, Options{}); !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input error for non-positive time, got %v", err)
	}
	if _, err := Fit([]float64{10, 20}, Options{Model: "Weibull"}); !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input error for unknown model, got %v", err)
	}
}

func TestFit_DefaultsToDuane(t *testing.T) {
	res, err := Fit([]float64{10, 20, 30}, Options{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if res.Model != Duane {
		t.Fatalf("expected Duane by default, got %s", res.Model)
	}
}
