package recurrence

import "math"

// EventKind distinguishes repairs from end-of-observation markers in the
// pooled event stream. At equal times a Censored event is consumed before
// another system's Failure, so a system retired at time t is not credited
// to the risk set for a failure elsewhere at the same instant; a system's
// own failure at its retirement instant is consumed before its censoring
// (see Pool for the full tie order).
type EventKind int

const (
	Censored EventKind = iota
	Failure
)

func (k EventKind) String() string {
	if k == Failure {
		return "F"
	}
	return "C"
}

// RepairHistory is one system's ordered event times. The last time marks
// the system leaving observation: a repeated final value means the system
// was retired immediately after its last repair, a larger final value is a
// plain right-censoring time with no repair at that instant.
type RepairHistory struct {
	System string    `json:"system"`
	Times  []float64 `json:"times"`
}

// PooledEvent is one entry in the merged cross-system stream.
type PooledEvent struct {
	Time   float64   `json:"time"`
	Kind   EventKind `json:"kind"`
	System string    `json:"system"`
}

// MCFPoint is the nonparametric estimate at one distinct failure time.
// MCF is non-decreasing in time and Lower <= MCF <= Upper always holds.
type MCFPoint struct {
	Time     float64 `json:"time"`
	MCF      float64 `json:"mcf"`
	Variance float64 `json:"variance"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// AuditRow is one per-event row of the full estimator state table.
// Censored rows carry only Kind, Time and System; Defined marks whether the
// value columns are populated.
type AuditRow struct {
	Kind     EventKind `json:"state"`
	Time     float64   `json:"time"`
	System   string    `json:"system"`
	Defined  bool      `json:"defined"`
	MCF      float64   `json:"mcf,omitempty"`
	Variance float64   `json:"variance,omitempty"`
	Lower    float64   `json:"lower,omitempty"`
	Upper    float64   `json:"upper,omitempty"`
}

// Trend classifies the direction of the recurrence rate over time.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendConstant  Trend = "constant"
	TrendWorsening Trend = "worsening"
)

// PowerLawModel is the fitted parametric model MCF(t) = (t/Alpha)^Beta
// with standard errors, the alpha/beta covariance and log-normal confidence
// intervals for both parameters.
type PowerLawModel struct {
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	AlphaSE      float64 `json:"alpha_se"`
	BetaSE       float64 `json:"beta_se"`
	CovAlphaBeta float64 `json:"cov_alpha_beta"`
	AlphaLower   float64 `json:"alpha_lower"`
	AlphaUpper   float64 `json:"alpha_upper"`
	BetaLower    float64 `json:"beta_lower"`
	BetaUpper    float64 `json:"beta_upper"`
	Confidence   float64 `json:"confidence"`
	Trend        Trend   `json:"trend"`
}

// Eval returns the model value (t/Alpha)^Beta.
func (m *PowerLawModel) Eval(t float64) float64 {
	return math.Pow(t/m.Alpha, m.Beta)
}
