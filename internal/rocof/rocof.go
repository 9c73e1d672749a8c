// Package rocof runs the Laplace test for a trend in the rate of
// occurrence of failures, and fits the NHPP power-law intensity when a
// trend is present.
package rocof

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/core"
	"gorelia/domain/recurrence"
)

// Options for the Laplace test. TestEnd of zero means the test ended at
// the final failure; a positive TestEnd marks a time-terminated test.
type Options struct {
	Confidence float64
	TestEnd    float64
}

// Result of the Laplace trend test. BetaHat and LambdaHat are the NHPP
// power-law parameters, populated only when a trend is present; ROCOF is
// the flat HPP rate, populated only when the trend is constant.
type Result struct {
	U          float64          `json:"u"`
	ZCritLower float64          `json:"z_crit_lower"`
	ZCritUpper float64          `json:"z_crit_upper"`
	Trend      recurrence.Trend `json:"trend"`
	BetaHat    float64          `json:"beta_hat,omitempty"`
	LambdaHat  float64          `json:"lambda_hat,omitempty"`
	ROCOF      float64          `json:"rocof,omitempty"`
	Confidence float64          `json:"confidence"`
}

// FromFailureTimes runs the test on actual failure times measured from
// the start of observation.
func FromFailureTimes(failureTimes []float64, opts Options) (*Result, error) {
	if len(failureTimes) == 0 {
		return nil, core.NewInvalidInputError("failure_times", "at least one failure time is required")
	}
	sorted := make([]float64, len(failureTimes))
	copy(sorted, failureTimes)
	sort.Float64s(sorted)

	interarrival := make([]float64, len(sorted))
	prev := 0.0
	for i, t := range sorted {
		interarrival[i] = t - prev
		prev = t
	}
	return FromInterarrival(interarrival, opts)
}

// FromInterarrival runs the Laplace test on failure interarrival times.
// Repair durations are assumed negligible.
func FromInterarrival(interarrival []float64, opts Options) (*Result, error) {
	confidence := opts.Confidence
	if confidence == 0 {
		confidence = 0.95
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, core.NewInvalidInputError("confidence", "must be in the open interval (0, 1)")
	}
	for _, ti := range interarrival {
		if ti <= 0 || math.IsNaN(ti) || math.IsInf(ti, 0) {
			return nil, core.NewInvalidInputError("interarrival", "times must be positive and finite")
		}
	}

	total, _ := stats.Sum(interarrival)

	var tn float64
	var n int
	if opts.TestEnd > 0 {
		if opts.TestEnd < total {
			return nil, core.NewInvalidInputError("test_end", "cannot precede the final failure time")
		}
		tn = opts.TestEnd
		n = len(interarrival)
	} else {
		// Failure-terminated test: the last failure marks the end and is
		// excluded from the statistic.
		tn = total
		n = len(interarrival) - 1
	}
	if n < 1 {
		return nil, core.NewInsufficientDataError(len(interarrival), 2)
	}

	cumulative, err := stats.CumulativeSum(interarrival[:n])
	if err != nil {
		return nil, core.NewInvalidInputError("interarrival", err.Error())
	}
	sumCumulative, _ := stats.Sum(cumulative)

	zCrit := distuv.Normal{Mu: 0, Sigma: 1}.Quantile((1 - confidence) / 2)
	u := (sumCumulative/float64(n) - tn/2) / (tn * math.Sqrt(1/(12*float64(n))))

	res := &Result{
		U:          u,
		ZCritLower: zCrit,
		ZCritUpper: -zCrit,
		Confidence: confidence,
	}

	switch {
	case u < zCrit:
		res.Trend = recurrence.TrendImproving
		res.BetaHat, res.LambdaHat = powerLawIntensity(cumulative, tn, len(interarrival))
	case u > -zCrit:
		res.Trend = recurrence.TrendWorsening
		res.BetaHat, res.LambdaHat = powerLawIntensity(cumulative, tn, len(interarrival))
	default:
		res.Trend = recurrence.TrendConstant
		res.ROCOF = float64(n+1) / total
	}

	return res, nil
}

// powerLawIntensity is the MLE of the NHPP power-law parameters given the
// cumulative failure times and the end of the test.
func powerLawIntensity(cumulative []float64, tn float64, events int) (betaHat, lambdaHat float64) {
	sumLogRatio := 0.0
	for _, tc := range cumulative {
		sumLogRatio += math.Log(tn / tc)
	}
	betaHat = float64(events) / sumLogRatio
	lambdaHat = float64(events) / math.Pow(tn, betaHat)
	return betaHat, lambdaHat
}
