package recurrence

import (
	"fmt"
	"math"
	"sort"

	"gorelia/domain/core"
)

// FromSeries wraps unlabeled per-system time series in RepairHistory values
// with generated labels. A single flat series is just a one-element call.
func FromSeries(series ...[]float64) []RepairHistory {
	histories := make([]RepairHistory, len(series))
	for i, times := range series {
		histories[i] = RepairHistory{
			System: fmt.Sprintf("system-%d", i+1),
			Times:  times,
		}
	}
	return histories
}

// Pool validates the histories and merges them into a single time-ordered
// event stream. Every non-final time becomes a Failure event and every
// final time a Censored event, so the stream carries exactly one Censored
// event per system and len(stream) equals the summed history lengths.
//
// The sort is a total order on (time, tie rank, system). Within a tied
// time, censorings of systems with no failure at that time come first,
// then failures, then censorings of systems that also fail at that time.
// A system retired at another system's failure instant therefore leaves
// the risk set before the failure is counted, while a system retired at
// the instant of its own last repair still has that repair counted.
// The returned count is the initial risk set.
func Pool(histories []RepairHistory) ([]PooledEvent, int, error) {
	if len(histories) == 0 {
		return nil, 0, core.NewInvalidInputError("histories", "at least one repair history is required")
	}

	total := 0
	for _, h := range histories {
		total += len(h.Times)
	}
	events := make([]PooledEvent, 0, total)

	for i, h := range histories {
		label := h.System
		if label == "" {
			label = fmt.Sprintf("system-%d", i+1)
		}
		if len(h.Times) == 0 {
			return nil, 0, core.NewInvalidInputError(label, "history must contain at least one time")
		}

		times := make([]float64, len(h.Times))
		copy(times, h.Times)
		sort.Float64s(times)

		for j, t := range times {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return nil, 0, core.NewInvalidInputError(label, fmt.Sprintf("time %g is not a finite number", t))
			}
			if t < 0 {
				return nil, 0, core.NewInvalidInputError(label, fmt.Sprintf("time %g is negative", t))
			}
			kind := Failure
			if j == len(times)-1 {
				kind = Censored
			}
			events = append(events, PooledEvent{Time: t, Kind: kind, System: label})
		}
	}

	type instant struct {
		time   float64
		system string
	}
	failing := make(map[instant]bool, len(events))
	for _, ev := range events {
		if ev.Kind == Failure {
			failing[instant{ev.Time, ev.System}] = true
		}
	}
	tieRank := func(ev PooledEvent) int {
		switch {
		case ev.Kind == Failure:
			return 1
		case failing[instant{ev.Time, ev.System}]:
			// Retirement at the instant of the system's own repair: the
			// repair is consumed first.
			return 2
		default:
			return 0
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		if ri, rj := tieRank(events[i]), tieRank(events[j]); ri != rj {
			return ri < rj
		}
		return events[i].System < events[j].System
	})

	return events, len(histories), nil
}
