package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary is the descriptive statistics of a sample.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// SummaryColumns labels Summary.Values.
var SummaryColumns = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Values lists the summary in SummaryColumns order. Undefined values are NaN.
func (s Summary) Values() []any {
	return []any{s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
}

// Describe summarises xs, ignoring NaN. The standard deviation is the
// sample one; quartiles interpolate linearly between order statistics.
func Describe(xs []float64) Summary {
	clean := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	nan := math.NaN()
	s := Summary{Count: len(clean), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(clean) == 0 {
		return s
	}
	slices.Sort(clean)

	s.Mean = stat.Mean(clean, nil)
	if len(clean) > 1 {
		s.Std = stat.StdDev(clean, nil)
	}
	s.Min, s.Max = clean[0], clean[len(clean)-1]
	s.Q25 = quantile(clean, 0.25)
	s.Q50 = quantile(clean, 0.5)
	s.Q75 = quantile(clean, 0.75)
	return s
}

// quantile interpolates between the order statistics around p·(n-1).
func quantile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
