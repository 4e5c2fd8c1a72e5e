package fit

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// RiseExp is the fitted curve y = Top·(1 − e^(−x/K)) + Offset.
type RiseExp struct {
	K      float64
	Top    float64
	Offset float64
	R2     float64
	AIC    float64
	N      int
}

// Predict evaluates the curve at x.
func (r RiseExp) Predict(x float64) float64 {
	return riseExp(x, [3]float64{r.K, r.Top, r.Offset})
}

// ExpBounds is a box on (K, Top, Offset).
type ExpBounds struct {
	Lo, Hi [3]float64
}

func riseExp(x float64, p [3]float64) float64 {
	return p[1]*(1-math.Exp(-x/p[0])) + p[2]
}

// FitRiseExp fits a rising exponential through (x, y) with every parameter
// kept strictly inside b. K must be bounded away from zero.
func FitRiseExp(x, y []float64, b ExpBounds) (RiseExp, error) {
	if len(x) != len(y) {
		return RiseExp{}, eris.Errorf("fit: %d x values but %d y values", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return RiseExp{}, eris.Errorf("fit: need at least 3 samples, got %d", n)
	}
	for i := range b.Lo {
		if b.Lo[i] >= b.Hi[i] {
			return RiseExp{}, eris.Errorf("fit: empty bounds for parameter %d", i)
		}
	}
	if b.Lo[0] <= 0 {
		return RiseExp{}, eris.New("fit: K lower bound must be positive")
	}

	// Parameters are searched in logit space so the optimiser is unconstrained.
	toParams := func(theta []float64) [3]float64 {
		var p [3]float64
		for i := range p {
			p[i] = b.Lo[i] + (b.Hi[i]-b.Lo[i])*sigmoid(theta[i])
		}
		return p
	}
	sse := func(p [3]float64) float64 {
		var s float64
		for i := range x {
			r := y[i] - riseExp(x[i], p)
			s += r * r
		}
		return s
	}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 { return sse(toParams(theta)) },
		Grad: func(grad, theta []float64) {
			p := toParams(theta)
			var g [3]float64
			for i := range x {
				e := math.Exp(-x[i] / p[0])
				r := y[i] - riseExp(x[i], p)
				g[0] += -2 * r * (-p[1] * e * x[i] / (p[0] * p[0]))
				g[1] += -2 * r * (1 - e)
				g[2] += -2 * r
			}
			for i := range g {
				s := sigmoid(theta[i])
				grad[i] = g[i] * (b.Hi[i] - b.Lo[i]) * s * (1 - s)
			}
		},
	}

	start := startTheta(x, y, b)
	var best *optimize.Result
	for _, method := range []optimize.Method{&optimize.BFGS{}, &optimize.NelderMead{}} {
		res, err := optimize.Minimize(problem, slices.Clone(start), &optimize.Settings{MajorIterations: 5000}, method)
		// A failed line search near the optimum still reports the best location.
		if res == nil || math.IsNaN(res.F) {
			if err != nil {
				return RiseExp{}, eris.Wrap(err, "fit: minimise rising exponential")
			}
			continue
		}
		if best == nil || res.F < best.F {
			best = res
		}
	}
	if best == nil {
		return RiseExp{}, eris.New("fit: rising exponential did not converge")
	}

	p := toParams(best.X)
	pred := make([]float64, n)
	for i := range x {
		pred[i] = riseExp(x[i], p)
	}
	return RiseExp{
		K:      p[0],
		Top:    p[1],
		Offset: p[2],
		R2:     stat.RSquaredFrom(pred, y, nil),
		AIC:    AIC(best.F, n, 3),
		N:      n,
	}, nil
}

// startTheta guesses the offset from the smallest y, the top from the y
// range and K from the mean x, all pulled inside the bounds.
func startTheta(x, y []float64, b ExpBounds) []float64 {
	minY, maxY := y[0], y[0]
	for _, v := range y {
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}
	guess := [3]float64{stat.Mean(x, nil) / 2, maxY - minY, minY}

	theta := make([]float64, 3)
	for i, g := range guess {
		u := (g - b.Lo[i]) / (b.Hi[i] - b.Lo[i])
		theta[i] = logit(clamp(u, 1e-3, 1-1e-3))
	}
	return theta
}

func sigmoid(t float64) float64 { return 1 / (1 + math.Exp(-t)) }

func logit(u float64) float64 { return math.Log(u / (1 - u)) }
