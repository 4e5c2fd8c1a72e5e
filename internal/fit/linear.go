// Package fit calibrates fuel consumption against load with a least-squares
// line and a rising exponential, and propagates the line's uncertainty to
// predictions.
package fit

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// Linear is the fitted line y = Slope·x + Intercept.
type Linear struct {
	Slope     float64
	Intercept float64
	// Cov is the parameter covariance in (slope, intercept) order, scaled by
	// the residual variance.
	Cov [2][2]float64
	R2  float64
	AIC float64
	N   int
}

// Bounds is a box on the line parameters.
type Bounds struct {
	SlopeMin, SlopeMax         float64
	InterceptMin, InterceptMax float64
}

func (b Bounds) contains(slope, intercept float64) bool {
	return slope >= b.SlopeMin && slope <= b.SlopeMax &&
		intercept >= b.InterceptMin && intercept <= b.InterceptMax
}

// FitLinear fits a least-squares line through (x, y).
func FitLinear(x, y []float64) (Linear, error) {
	return fitLinear(x, y, nil)
}

// FitLinearBounded fits a least-squares line whose slope and intercept stay
// inside b.
func FitLinearBounded(x, y []float64, b Bounds) (Linear, error) {
	if b.SlopeMin > b.SlopeMax || b.InterceptMin > b.InterceptMax {
		return Linear{}, eris.Errorf("fit: empty bounds %+v", b)
	}
	return fitLinear(x, y, &b)
}

func fitLinear(x, y []float64, b *Bounds) (Linear, error) {
	if len(x) != len(y) {
		return Linear{}, eris.Errorf("fit: %d x values but %d y values", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return Linear{}, eris.Errorf("fit: need at least 3 samples, got %d", n)
	}

	meanX, varX := stat.MeanVariance(x, nil)
	if varX == 0 {
		return Linear{}, eris.New("fit: x values are all equal")
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if b != nil && !b.contains(slope, intercept) {
		slope, intercept = b.edgeFit(x, y)
	}
	l := Linear{Slope: slope, Intercept: intercept, N: n}

	sse := l.sse(x, y)
	sxx := varX * float64(n-1)
	s2 := sse / float64(n-2)
	l.Cov = [2][2]float64{
		{s2 / sxx, -meanX * s2 / sxx},
		{-meanX * s2 / sxx, s2 * (1/float64(n) + meanX*meanX/sxx)},
	}
	l.R2 = stat.RSquared(x, y, nil, intercept, slope)
	l.AIC = AIC(sse, n, 2)
	return l, nil
}

// edgeFit minimises the squared error along each edge of the box and keeps
// the best. The error is convex, so when the unconstrained line lies outside
// the box the constrained optimum is on one of its edges.
func (b Bounds) edgeFit(x, y []float64) (slope, intercept float64) {
	meanX, meanY := stat.Mean(x, nil), stat.Mean(y, nil)
	var sxx float64
	for _, v := range x {
		sxx += v * v
	}

	var candidates [][2]float64
	for _, s := range []float64{b.SlopeMin, b.SlopeMax} {
		c := clamp(meanY-s*meanX, b.InterceptMin, b.InterceptMax)
		candidates = append(candidates, [2]float64{s, c})
	}
	for _, c := range []float64{b.InterceptMin, b.InterceptMax} {
		var sxy float64
		for i := range x {
			sxy += x[i] * (y[i] - c)
		}
		s := b.SlopeMin
		if sxx > 0 {
			s = clamp(sxy/sxx, b.SlopeMin, b.SlopeMax)
		}
		candidates = append(candidates, [2]float64{s, c})
	}

	best := math.Inf(1)
	for _, c := range candidates {
		if e := (Linear{Slope: c[0], Intercept: c[1]}).sse(x, y); e < best {
			best, slope, intercept = e, c[0], c[1]
		}
	}
	return slope, intercept
}

func (l Linear) sse(x, y []float64) float64 {
	var sse float64
	for i := range x {
		r := y[i] - l.Predict(x[i])
		sse += r * r
	}
	return sse
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// AIC is Akaike's criterion for a least-squares fit with p parameters.
func AIC(sse float64, n, p int) float64 {
	return float64(n)*math.Log(sse/float64(n)) + 2*float64(p)
}

// Predict evaluates the line at x.
func (l Linear) Predict(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// PredictStd is the standard deviation of Predict(x) given the parameter
// covariance.
func (l Linear) PredictStd(x float64) float64 {
	v := x*x*l.Cov[0][0] + 2*x*l.Cov[0][1] + l.Cov[1][1]
	return math.Sqrt(math.Max(v, 0))
}

// SlopeStd and InterceptStd are the standard errors of the parameters.
func (l Linear) SlopeStd() float64 { return math.Sqrt(l.Cov[0][0]) }

func (l Linear) InterceptStd() float64 { return math.Sqrt(l.Cov[1][1]) }
