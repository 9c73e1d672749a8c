// Package replacement computes the preventive-replacement interval that
// minimises cost per unit time under a Weibull hazard.
package replacement

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"gorelia/domain/core"
)

// Policy selects the restoration assumption of the cost model.
type Policy int

const (
	// AsGoodAsNew models HPP renewal: a replacement restores the system to
	// new condition (q=0).
	AsGoodAsNew Policy = iota
	// AsGoodAsOld models power-law NHPP minimal repair (q=1).
	AsGoodAsOld
)

// Inputs for the cost model. UnitYear scales one year in the time unit of
// the Weibull parameters; zero defaults to hours (24*365).
type Inputs struct {
	CostPM       float64
	CostCM       float64
	WeibullAlpha float64
	WeibullBeta  float64
	Policy       Policy
	UnitYear     float64
}

// Result of the optimisation.
type Result struct {
	ORT     float64 `json:"ort"`
	MinCost float64 `json:"min_cost"`
	// Optimal preventive cost rate over the purely reactive cost rate.
	OptimalReactiveRatio float64 `json:"optimal_reactive_ratio"`
	// Optimal preventive cost rate over the yearly-replacement cost rate.
	YearlyOptimalRatio float64 `json:"yearly_optimal_ratio"`
}

const gridPoints = 10000

// Optimize finds the replacement time minimising cost per unit time.
// Preventive maintenance must be cheaper than corrective maintenance, and
// a WeibullBeta above 1 (increasing hazard) is required for a preventive
// policy to pay off at all.
func Optimize(in Inputs) (*Result, error) {
	if in.CostPM <= 0 || in.CostCM <= 0 {
		return nil, core.NewInvalidInputError("costs", "must be positive")
	}
	if in.CostPM > in.CostCM {
		return nil, core.NewInvalidInputError("cost_pm", "must not exceed cost_cm, otherwise preventive maintenance cannot pay off")
	}
	if in.WeibullAlpha <= 0 || in.WeibullBeta <= 0 {
		return nil, core.NewInvalidInputError("weibull", "alpha and beta must be positive")
	}
	unitYear := in.UnitYear
	if unitYear == 0 {
		unitYear = 24 * 365
	}

	switch in.Policy {
	case AsGoodAsOld:
		return optimizeGoodAsOld(in, unitYear)
	case AsGoodAsNew:
		return optimizeGoodAsNew(in, unitYear)
	default:
		return nil, core.NewInvalidInputError("policy", "must be AsGoodAsNew or AsGoodAsOld")
	}
}

// optimizeGoodAsOld has a closed-form optimum under the power-law NHPP.
func optimizeGoodAsOld(in Inputs, unitYear float64) (*Result, error) {
	if in.WeibullBeta <= 1 {
		return nil, core.NewInvalidInputError("weibull_beta", "must exceed 1 for a finite as-good-as-old optimum")
	}

	costAt := func(t float64) float64 {
		return (in.CostPM*math.Pow(t/in.WeibullAlpha, in.WeibullBeta) + in.CostCM) / t
	}

	ort := in.WeibullAlpha * math.Pow(in.CostCM/(in.CostPM*(in.WeibullBeta-1)), 1/in.WeibullBeta)
	minCost := costAt(ort)
	reactiveCost := costAt(4 * in.WeibullAlpha)
	yearlyCost := costAt(unitYear)

	return &Result{
		ORT:                  ort,
		MinCost:              minCost,
		OptimalReactiveRatio: minCost / reactiveCost,
		YearlyOptimalRatio:   minCost / yearlyCost,
	}, nil
}

// optimizeGoodAsNew minimises the renewal-theory cost rate
// (cPM*SF(t) + cCM*(1-SF(t))) / Int_0^t SF(u) du over a dense grid.
func optimizeGoodAsNew(in Inputs, unitYear float64) (*Result, error) {
	sf := func(t float64) float64 {
		return math.Exp(-math.Pow(t/in.WeibullAlpha, in.WeibullBeta))
	}

	upper := 3 * in.WeibullAlpha
	step := (upper - 1) / float64(gridPoints-1)

	ort := 1.0
	minCost := math.Inf(1)
	var reactiveCost float64

	// Cumulative trapezoid of the survival function along the grid.
	prevT := 0.0
	prevSF := sf(0)
	integral := 0.0
	for i := 0; i < gridPoints; i++ {
		t := 1 + step*float64(i)
		s := sf(t)
		integral += (t - prevT) * (s + prevSF) / 2
		prevT, prevSF = t, s

		cost := (in.CostPM*s + in.CostCM*(1-s)) / integral
		if cost < minCost {
			minCost = cost
			ort = t
		}
		if i == gridPoints-1 {
			reactiveCost = cost
		}
	}

	sfYear := sf(unitYear)
	integralYear := quad.Fixed(sf, 0, unitYear, 256, nil, 0)
	yearlyCost := (in.CostPM*sfYear + in.CostCM*(1-sfYear)) / integralYear

	return &Result{
		ORT:                  ort,
		MinCost:              minCost,
		OptimalReactiveRatio: minCost / reactiveCost,
		YearlyOptimalRatio:   minCost / yearlyCost,
	}, nil
}
