// Package mcf implements the Mean Cumulative Function engine for
// recurrent-event (repairable systems) data: a nonparametric estimator
// with recursive variance and log-normal confidence bounds, and a
// power-law parametric fitter over the nonparametric points.
package mcf

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/core"
	"gorelia/domain/recurrence"
)

// NonparametricResult holds the ordered MCF point estimates plus the full
// per-event state table. Points carry one row per distinct failure time;
// Audit carries one row per pooled event including blank censored rows.
type NonparametricResult struct {
	Points     []recurrence.MCFPoint `json:"points"`
	Audit      []recurrence.AuditRow `json:"audit"`
	Systems    int                   `json:"systems"`
	Confidence float64               `json:"confidence"`
}

// EstimateNonparametric computes Nelson's recursive nonparametric MCF
// estimate for right-censored multi-system recurrence data.
//
// The pooled stream is walked in time order. A Censored event removes its
// system from the risk set r. A Failure event adds 1/r to the cumulative
// estimate and (1/r^2)*((1-1/r)^2 + (r-1)/r^2) to the cumulative variance.
// Confidence bounds are built on the log of the estimate so the lower
// bound stays non-negative for all inputs: M*exp(-+z*sigma/M) with z the
// one-sided standard-normal quantile for the requested confidence.
//
// Tied failure times fold into a single emitted point carrying the state
// after the last tied event; the audit table keeps the per-event detail.
func EstimateNonparametric(histories []recurrence.RepairHistory, confidence float64) (*NonparametricResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, core.NewInvalidInputError("confidence", "must be in the open interval (0, 1)")
	}

	events, systems, err := recurrence.Pool(histories)
	if err != nil {
		return nil, err
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(confidence)

	r := systems
	cumulative := 0.0
	variance := 0.0

	points := make([]recurrence.MCFPoint, 0, len(events)-systems)
	audit := make([]recurrence.AuditRow, 0, len(events))

	for _, ev := range events {
		if ev.Kind == recurrence.Censored {
			r--
			audit = append(audit, recurrence.AuditRow{
				Kind:   ev.Kind,
				Time:   ev.Time,
				System: ev.System,
			})
			continue
		}

		if r <= 0 {
			return nil, core.NewDegenerateInputError(ev.Time)
		}

		rInv := 1 / float64(r)
		cumulative += rInv
		variance += rInv * rInv * ((1-rInv)*(1-rInv) + float64(r-1)*rInv*rInv)

		sigma := math.Sqrt(variance)
		point := recurrence.MCFPoint{
			Time:     ev.Time,
			MCF:      cumulative,
			Variance: variance,
			Lower:    cumulative * math.Exp(-z*sigma/cumulative),
			Upper:    cumulative * math.Exp(z*sigma/cumulative),
		}

		if n := len(points); n > 0 && points[n-1].Time == ev.Time {
			points[n-1] = point
		} else {
			points = append(points, point)
		}

		audit = append(audit, recurrence.AuditRow{
			Kind:     ev.Kind,
			Time:     ev.Time,
			System:   ev.System,
			Defined:  true,
			MCF:      point.MCF,
			Variance: point.Variance,
			Lower:    point.Lower,
			Upper:    point.Upper,
		})
	}

	return &NonparametricResult{
		Points:     points,
		Audit:      audit,
		Systems:    systems,
		Confidence: confidence,
	}, nil
}
