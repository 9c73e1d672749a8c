// Package growth fits reliability growth models (Duane, Crow-AMSAA) to a
// single system's cumulative failure times.
package growth

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"gorelia/domain/core"
)

// Model selects the growth model to fit.
type Model string

const (
	Duane     Model = "Duane"
	CrowAMSAA Model = "Crow-AMSAA"
)

// Options tunes the fit. TargetMTBF of zero means no target is requested.
type Options struct {
	Model      Model
	TargetMTBF float64
}

// Result holds the fitted growth model. Lambda, Beta and GrowthRate are
// populated for Crow-AMSAA; Alpha and A for Duane. The demonstrated MTBF
// and failure-intensity figures are evaluated at the final failure time.
type Result struct {
	Model Model `json:"model"`

	Lambda     float64 `json:"lambda,omitempty"`
	Beta       float64 `json:"beta,omitempty"`
	GrowthRate float64 `json:"growth_rate,omitempty"`

	Alpha float64 `json:"alpha,omitempty"`
	A     float64 `json:"a,omitempty"`

	DMTBFCumulative    float64 `json:"dmtbf_cumulative"`
	DMTBFInstantaneous float64 `json:"dmtbf_instantaneous"`
	DFICumulative      float64 `json:"dfi_cumulative"`
	DFIInstantaneous   float64 `json:"dfi_instantaneous"`
	TimeToTarget       float64 `json:"time_to_target,omitempty"`
	TargetMTBF         float64 `json:"target_mtbf,omitempty"`
}

// Fit fits the selected growth model to actual failure times measured
// from the start of the test (not interarrival times).
func Fit(times []float64, opts Options) (*Result, error) {
	if len(times) < 2 {
		return nil, core.NewInsufficientDataError(len(times), 2)
	}
	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)
	if sorted[0] <= 0 {
		return nil, core.NewInvalidInputError("times", "failure times must be positive")
	}

	switch opts.Model {
	case "", Duane:
		return fitDuane(sorted, opts.TargetMTBF)
	case CrowAMSAA:
		return fitCrowAMSAA(sorted, opts.TargetMTBF)
	default:
		return nil, core.NewInvalidInputError("model", "must be Duane or Crow-AMSAA")
	}
}

func fitCrowAMSAA(times []float64, targetMTBF float64) (*Result, error) {
	n := float64(len(times))
	maxTime := times[len(times)-1]

	sumLog := 0.0
	for _, t := range times {
		sumLog += math.Log(t)
	}

	beta := n / (n*math.Log(maxTime) - sumLog)
	lambda := n / math.Pow(maxTime, beta)

	res := &Result{
		Model:      CrowAMSAA,
		Lambda:     lambda,
		Beta:       beta,
		GrowthRate: 1 - beta,
	}
	res.DMTBFInstantaneous = 1 / (lambda * beta * math.Pow(maxTime, beta-1))
	res.DFIInstantaneous = 1 / res.DMTBFInstantaneous
	res.DMTBFCumulative = (1 / lambda) * math.Pow(maxTime, 1-beta)
	res.DFICumulative = 1 / res.DMTBFCumulative

	if targetMTBF > 0 {
		res.TargetMTBF = targetMTBF
		res.TimeToTarget = math.Pow(1/(lambda*targetMTBF), 1/(beta-1))
	}

	return res, nil
}

func fitDuane(times []float64, targetMTBF float64) (*Result, error) {
	lnT := make([]float64, len(times))
	lnMTBFc := make([]float64, len(times))
	for i, t := range times {
		lnT[i] = math.Log(t)
		lnMTBFc[i] = math.Log(t / float64(i+1))
	}

	intercept, slope := stat.LinearRegression(lnT, lnMTBFc, nil, false)
	b := math.Exp(intercept)
	maxTime := times[len(times)-1]

	res := &Result{
		Model: Duane,
		Alpha: slope,
		A:     1 / b,
	}
	res.DMTBFCumulative = b * math.Pow(maxTime, slope)
	res.DFICumulative = 1 / res.DMTBFCumulative
	res.DFIInstantaneous = (1 - slope) * res.DFICumulative
	res.DMTBFInstantaneous = 1 / res.DFIInstantaneous

	if targetMTBF > 0 {
		res.TargetMTBF = targetMTBF
		res.TimeToTarget = math.Pow(targetMTBF/b, 1/slope)
	}

	return res, nil
}
