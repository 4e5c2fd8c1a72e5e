package stats

import (
	"cmp"
	"slices"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/fit"
)

// LoadSummary describes the cost per hive per km of one load size in one year.
type LoadSummary struct {
	Colonies int
	Year     int
	Summary
}

// CostPerHiveKm groups costed migrations by (colonies, year) and describes
// their cost per hive per km. Rows without that cost are skipped.
func CostPerHiveKm(rows []cost.Row) []LoadSummary {
	type key struct{ colonies, year int }
	groups := make(map[key][]float64)
	for _, r := range rows {
		if !r.CostPerHivePerKm.Valid {
			continue
		}
		k := key{r.Colonies, r.Year()}
		groups[k] = append(groups[k], r.CostPerHivePerKm.Decimal.InexactFloat64())
	}

	out := make([]LoadSummary, 0, len(groups))
	for k, xs := range groups {
		out = append(out, LoadSummary{Colonies: k.colonies, Year: k.year, Summary: Describe(xs)})
	}
	slices.SortFunc(out, func(a, b LoadSummary) int {
		return cmp.Or(cmp.Compare(a.Colonies, b.Colonies), cmp.Compare(a.Year, b.Year))
	})
	return out
}

// Reference loads and distances for the modelled fuel use.
var (
	DefaultReferenceLoads = []int{10, 20}
	DefaultReferenceMaxKm = 580.0
	DefaultReferenceStep  = 20.0
)

// ReferencePoint is the modelled fuel burnt carrying a load over a distance.
type ReferencePoint struct {
	Colonies   int
	DistanceKm float64
	Litres     float64
	LitresStd  float64
}

// ReferenceFuel evaluates the fuel calibration for each load over distances
// 0, step, ... up to maxKm.
func ReferenceFuel(l fit.Linear, loads []int, maxKm, step float64) []ReferencePoint {
	if step <= 0 {
		return nil
	}
	var out []ReferencePoint
	for _, n := range loads {
		perKm := l.Predict(float64(n))
		perKmStd := l.PredictStd(float64(n))
		for i := 0; float64(i)*step <= maxKm; i++ {
			km := float64(i) * step
			out = append(out, ReferencePoint{
				Colonies:   n,
				DistanceKm: km,
				Litres:     km * perKm,
				LitresStd:  km * perKmStd,
			})
		}
	}
	return out
}
