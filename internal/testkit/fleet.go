// Package testkit generates synthetic repairable-system histories with a
// known power-law recurrence process, for tests and demo data.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gorelia/domain/recurrence"
)

// PowerLawHistory returns a single-system history whose nonparametric MCF
// lands exactly on (t/alpha)^beta: with one system the estimator steps by
// 1 at every failure, so placing the k-th failure at alpha*k^(1/beta)
// makes the point series noise-free. Observation ends shortly after the
// last failure.
func PowerLawHistory(alpha, beta float64, failures int) recurrence.RepairHistory {
	times := make([]float64, 0, failures+1)
	for k := 1; k <= failures; k++ {
		times = append(times, alpha*math.Pow(float64(k), 1/beta))
	}
	censor := alpha * math.Pow(float64(failures)+0.5, 1/beta)
	times = append(times, censor)

	return recurrence.RepairHistory{System: "synthetic", Times: times}
}

// FleetConfig drives random fleet generation.
type FleetConfig struct {
	Systems int
	Alpha   float64
	Beta    float64
	Horizon float64
	Seed    int64
}

// GenerateFleet simulates a fleet of identical systems under a power-law
// NHPP via inversion of the cumulative intensity: the k-th event time is
// alpha*E_k^(1/beta) where E_k is a cumulative sum of unit-exponential
// draws. Each system is censored at the horizon. Deterministic per seed.
func GenerateFleet(cfg FleetConfig) []recurrence.RepairHistory {
	rng := rand.New(rand.NewSource(cfg.Seed))

	fleet := make([]recurrence.RepairHistory, 0, cfg.Systems)
	for i := 0; i < cfg.Systems; i++ {
		var times []float64
		cumulative := 0.0
		for {
			cumulative += rng.ExpFloat64()
			t := cfg.Alpha * math.Pow(cumulative, 1/cfg.Beta)
			if t >= cfg.Horizon {
				break
			}
			times = append(times, t)
		}
		times = append(times, cfg.Horizon)

		fleet = append(fleet, recurrence.RepairHistory{
			System: fmt.Sprintf("unit-%02d", i+1),
			Times:  times,
		})
	}

	return fleet
}
