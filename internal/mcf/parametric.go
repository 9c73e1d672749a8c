package mcf

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gorelia/domain/core"
	"gorelia/domain/recurrence"
)

const (
	// Iteration bound for the Levenberg-Marquardt refinement. Exceeding it
	// surfaces as ErrFitDidNotConverge, never as a degraded estimate.
	maxFitIterations = 200

	// Relative residual improvement below which the fit is accepted.
	fitTolerance = 1e-12

	// Half-width around beta=1 treated as "no trend" when the confidence
	// interval is too tight to be informative (noise-free fits).
	betaTolerance = 0.01
)

// FitParametric fits MCF(t) = (t/alpha)^beta to the nonparametric point
// series by nonlinear least squares.
//
// Initial guesses come from an ordinary least-squares regression of
// ln(MCF) on ln(t): the slope is the beta guess and the intercept maps to
// alpha = exp(-intercept/beta). Both parameters are then refined with a
// damped Gauss-Newton (Levenberg-Marquardt) iteration on the untransformed
// pairs. Standard errors are the square roots of the diagonal of
// s^2*(J^T J)^-1 with s^2 = RSS/(n-2); parameter confidence intervals use
// the same log-normal construction as the nonparametric bounds, keeping
// both parameters positive.
func FitParametric(points []recurrence.MCFPoint, confidence float64) (*recurrence.PowerLawModel, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, core.NewInvalidInputError("confidence", "must be in the open interval (0, 1)")
	}
	if len(points) < 2 {
		return nil, core.NewInsufficientDataError(len(points), 2)
	}

	times := make([]float64, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		if p.Time <= 0 {
			return nil, core.NewInvalidInputError("points", "failure times must be positive to fit a power law")
		}
		times[i] = p.Time
		values[i] = p.MCF
	}

	alpha, beta, err := initialGuess(times, values)
	if err != nil {
		return nil, err
	}

	alpha, beta, rss, iterations, converged := refine(times, values, alpha, beta)
	if !converged {
		return nil, core.NewConvergenceError(iterations, rss)
	}

	alphaSE, betaSE, covAlphaBeta := parameterCovariance(times, values, alpha, beta, rss)

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + confidence/2)
	model := &recurrence.PowerLawModel{
		Alpha:        alpha,
		Beta:         beta,
		AlphaSE:      alphaSE,
		BetaSE:       betaSE,
		CovAlphaBeta: covAlphaBeta,
		AlphaLower:   alpha * math.Exp(-z*alphaSE/alpha),
		AlphaUpper:   alpha * math.Exp(z*alphaSE/alpha),
		BetaLower:    beta * math.Exp(-z*betaSE/beta),
		BetaUpper:    beta * math.Exp(z*betaSE/beta),
		Confidence:   confidence,
	}
	model.Trend = classifyTrend(model.Beta, model.BetaLower, model.BetaUpper)

	return model, nil
}

// initialGuess linearises the model: ln(MCF) = beta*ln(t) - beta*ln(alpha).
func initialGuess(times, values []float64) (alpha, beta float64, err error) {
	lnT := make([]float64, len(times))
	lnM := make([]float64, len(times))
	for i := range times {
		lnT[i] = math.Log(times[i])
		lnM[i] = math.Log(values[i])
	}

	intercept, slope := stat.LinearRegression(lnT, lnM, nil, false)
	if !(slope > 0) || math.IsNaN(intercept) {
		// MCF is non-decreasing, so a non-positive slope means the points
		// carry no usable trend signal.
		return 0, 0, core.NewInsufficientDataError(len(times), 2)
	}

	return math.Exp(-intercept / slope), slope, nil
}

// refine runs the damped Gauss-Newton iteration. It returns the refined
// parameters, the final residual sum of squares, the iterations used and
// whether the residual tolerance was met within the iteration bound.
func refine(times, values []float64, alpha, beta float64) (float64, float64, float64, int, bool) {
	rss := residualSumOfSquares(times, values, alpha, beta)
	lambda := 1e-3

	for iter := 1; iter <= maxFitIterations; iter++ {
		jac, residuals := jacobian(times, values, alpha, beta)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var grad mat.VecDense
		grad.MulVec(jac.T(), residuals)

		stepped := false
		for attempt := 0; attempt < 30; attempt++ {
			damped := mat.NewDense(2, 2, []float64{
				jtj.At(0, 0) * (1 + lambda), jtj.At(0, 1),
				jtj.At(1, 0), jtj.At(1, 1) * (1 + lambda),
			})

			var delta mat.VecDense
			if err := delta.SolveVec(damped, &grad); err != nil {
				lambda *= 10
				continue
			}

			nextAlpha := alpha + delta.AtVec(0)
			nextBeta := beta + delta.AtVec(1)
			if nextAlpha <= 0 || nextBeta <= 0 {
				lambda *= 10
				continue
			}

			nextRSS := residualSumOfSquares(times, values, nextAlpha, nextBeta)
			if nextRSS <= rss {
				improvement := rss - nextRSS
				alpha, beta, rss = nextAlpha, nextBeta, nextRSS
				lambda = math.Max(lambda/10, 1e-12)
				stepped = true

				if improvement <= fitTolerance*(rss+fitTolerance) {
					return alpha, beta, rss, iter, true
				}
				break
			}
			lambda *= 10
		}

		if !stepped {
			// No damping level produces an improving step: the iteration is
			// at a numerical minimum of the residual surface.
			return alpha, beta, rss, iter, true
		}
	}

	return alpha, beta, rss, maxFitIterations, false
}

// jacobian builds the n x 2 Jacobian of the model and the residual vector
// values - (t/alpha)^beta at the current parameters.
func jacobian(times, values []float64, alpha, beta float64) (*mat.Dense, *mat.VecDense) {
	n := len(times)
	jac := mat.NewDense(n, 2, nil)
	residuals := mat.NewVecDense(n, nil)

	for i := 0; i < n; i++ {
		scaled := times[i] / alpha
		model := math.Pow(scaled, beta)
		jac.Set(i, 0, -beta/alpha*model)
		jac.Set(i, 1, model*math.Log(scaled))
		residuals.SetVec(i, values[i]-model)
	}

	return jac, residuals
}

func residualSumOfSquares(times, values []float64, alpha, beta float64) float64 {
	rss := 0.0
	for i := range times {
		r := values[i] - math.Pow(times[i]/alpha, beta)
		rss += r * r
	}
	return rss
}

// parameterCovariance extracts SE(alpha), SE(beta) and their covariance
// from s^2*(J^T J)^-1 at the fitted parameters.
func parameterCovariance(times, values []float64, alpha, beta, rss float64) (alphaSE, betaSE, covAlphaBeta float64) {
	jac, _ := jacobian(times, values, alpha, beta)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		return 0, 0, 0
	}

	s2 := 0.0
	if dof := len(times) - 2; dof > 0 {
		s2 = rss / float64(dof)
	}

	alphaSE = math.Sqrt(s2 * inv.At(0, 0))
	betaSE = math.Sqrt(s2 * inv.At(1, 1))
	covAlphaBeta = s2 * inv.At(0, 1)
	return alphaSE, betaSE, covAlphaBeta
}

// classifyTrend maps the fitted beta and its confidence interval to a
// trend direction: beta below 1 means the recurrence rate is decreasing.
func classifyTrend(beta, lower, upper float64) recurrence.Trend {
	switch {
	case math.Abs(beta-1) <= betaTolerance:
		return recurrence.TrendConstant
	case lower < 1 && 1 < upper:
		return recurrence.TrendConstant
	case beta < 1:
		return recurrence.TrendImproving
	default:
		return recurrence.TrendWorsening
	}
}
