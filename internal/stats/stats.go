// Package stats aggregates reconstructed migrations into the yearly,
// weekly and per-load summaries of the study.
package stats

import (
	"maps"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Defaults for Options.
const (
	DefaultCutoffYear = 2023
	DefaultSmallMax   = 28
	PackagingMax      = 220
)

// Options tunes Compute.
type Options struct {
	// CutoffYear and later years are left out.
	CutoffYear int
	// SmallMax is the largest load of a small beekeeper.
	SmallMax int
}

// DefaultOptions matches the published study.
func DefaultOptions() Options {
	return Options{CutoffYear: DefaultCutoffYear, SmallMax: DefaultSmallMax}
}

// ByYear holds one value per year.
type ByYear map[int]float64

// Years returns the keys in ascending order.
func (b ByYear) Years() []int { return slices.Sorted(maps.Keys(b)) }

// WeekKey identifies an ISO week of a year.
type WeekKey struct {
	Year int
	Week int
}

// ByWeek holds one value per year and week.
type ByWeek map[WeekKey]float64

// Keys returns the keys ordered by year, then week.
func (b ByWeek) Keys() []WeekKey {
	keys := slices.Collect(maps.Keys(b))
	slices.SortFunc(keys, func(a, c WeekKey) int {
		if a.Year != c.Year {
			return a.Year - c.Year
		}
		return a.Week - c.Week
	})
	return keys
}

// Bin counts migrations carrying Colonies colonies.
type Bin struct {
	Colonies int
	Count    int
}

// YearCost is the yearly spend on transport for either toll class.
type YearCost struct {
	Year        int
	Fuel        decimal.Decimal
	TotalEuro02 decimal.Decimal
	TotalEuro6  decimal.Decimal
}

// Report is the full set of summaries.
type Report struct {
	Beekeepers      ByYear
	Migrating       ByYear
	MigratingPruned ByYear
	MigratingSmall  ByYear

	Migrations       ByYear
	MigrationsPruned ByYear
	MigrationsSmall  ByYear

	Colonies       ByYear
	ColoniesPruned ByYear

	Weekly       ByWeek
	WeeklyPruned ByWeek
	// WeeklyPooled sums pruned colonies per week over all years.
	WeeklyPooled map[int]float64

	Packaging       []Bin
	PackagingPruned []Bin

	Distance        ByYear
	DistanceSmall   ByYear
	DistanceSummary Summary

	Costs []YearCost
}

// DropOneWay removes chains that consist of a single movement.
func DropOneWay(rows []cost.Row) []cost.Row {
	n := make(map[string]int)
	for _, r := range rows {
		n[r.ChainID]++
	}
	return slices.DeleteFunc(slices.Clone(rows), func(r cost.Row) bool { return n[r.ChainID] < 2 })
}

// Compute builds the report from all reconstructed migrations, the costed
// migrations above the distance threshold and the apiary census.
func Compute(all []model.ChainRow, pruned []cost.Row, census []CensusEntry, opts Options) Report {
	if opts.CutoffYear == 0 {
		opts.CutoffYear = DefaultCutoffYear
	}
	if opts.SmallMax == 0 {
		opts.SmallMax = DefaultSmallMax
	}

	all = slices.DeleteFunc(slices.Clone(all), func(r model.ChainRow) bool { return r.Year() >= opts.CutoffYear })
	pruned = DropOneWay(slices.DeleteFunc(slices.Clone(pruned), func(r cost.Row) bool { return r.Year() >= opts.CutoffYear }))
	small := slices.DeleteFunc(slices.Clone(pruned), func(r cost.Row) bool { return r.Colonies > opts.SmallMax })

	allMoves := chainMovements(all)
	prunedMoves := costMovements(pruned)
	smallMoves := costMovements(small)

	rep := Report{
		Beekeepers:       beekeepers(census, opts.CutoffYear),
		Migrating:        distinctHoldings(allMoves),
		MigratingPruned:  distinctHoldings(prunedMoves),
		MigratingSmall:   distinctHoldings(smallMoves),
		Migrations:       countByYear(allMoves),
		MigrationsPruned: countByYear(prunedMoves),
		MigrationsSmall:  countByYear(smallMoves),
		Colonies:         coloniesByYear(allMoves),
		ColoniesPruned:   coloniesByYear(prunedMoves),
		Weekly:           coloniesByWeek(allMoves),
		WeeklyPruned:     coloniesByWeek(prunedMoves),
		WeeklyPooled:     make(map[int]float64),
		Packaging:        packaging(allMoves),
		PackagingPruned:  packaging(prunedMoves),
		Distance:         distanceByYear(pruned),
		DistanceSmall:    distanceByYear(small),
		DistanceSummary:  Describe(travelDistances(pruned)),
		Costs:            yearlyCosts(pruned),
	}
	for k, v := range rep.WeeklyPruned {
		rep.WeeklyPooled[k.Week] += v
	}
	return rep
}

func chainMovements(rows []model.ChainRow) []model.Movement {
	out := make([]model.Movement, len(rows))
	for i, r := range rows {
		out[i] = r.Movement
	}
	return out
}

func costMovements(rows []cost.Row) []model.Movement {
	out := make([]model.Movement, len(rows))
	for i, r := range rows {
		out[i] = r.Movement
	}
	return out
}

func beekeepers(census []CensusEntry, cutoffYear int) ByYear {
	seen := make(map[int]map[string]bool)
	for _, c := range census {
		if c.Year >= cutoffYear {
			continue
		}
		if seen[c.Year] == nil {
			seen[c.Year] = make(map[string]bool)
		}
		seen[c.Year][c.Holding] = true
	}
	out := make(ByYear, len(seen))
	for y, s := range seen {
		out[y] = float64(len(s))
	}
	return out
}

// distinctHoldings counts beekeepers per year by the holding moving the
// colonies out. Synthesized returns carry no holding and are not counted.
func distinctHoldings(moves []model.Movement) ByYear {
	seen := make(map[int]map[string]bool)
	for _, m := range moves {
		if m.OriginHolding == "" {
			continue
		}
		if seen[m.Year()] == nil {
			seen[m.Year()] = make(map[string]bool)
		}
		seen[m.Year()][m.OriginHolding] = true
	}
	out := make(ByYear, len(seen))
	for y, s := range seen {
		out[y] = float64(len(s))
	}
	return out
}

func countByYear(moves []model.Movement) ByYear {
	out := make(ByYear)
	for _, m := range moves {
		out[m.Year()]++
	}
	return out
}

func coloniesByYear(moves []model.Movement) ByYear {
	out := make(ByYear)
	for _, m := range moves {
		out[m.Year()] += float64(m.Colonies)
	}
	return out
}

func coloniesByWeek(moves []model.Movement) ByWeek {
	out := make(ByWeek)
	for _, m := range moves {
		out[WeekKey{Year: m.Year(), Week: m.ISOWeek()}] += float64(m.Colonies)
	}
	return out
}

// packaging histograms loads of 1 to PackagingMax colonies; other loads
// are not counted.
func packaging(moves []model.Movement) []Bin {
	bins := make([]Bin, PackagingMax)
	for i := range bins {
		bins[i].Colonies = i + 1
	}
	for _, m := range moves {
		if m.Colonies >= 1 && m.Colonies <= PackagingMax {
			bins[m.Colonies-1].Count++
		}
	}
	return bins
}

func travelDistances(rows []cost.Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = math.NaN()
		if r.Routed() {
			out[i] = r.Travel.DistanceKm
		}
	}
	return out
}

func distanceByYear(rows []cost.Row) ByYear {
	out := make(ByYear)
	for _, r := range rows {
		if r.Routed() {
			out[r.Year()] += r.Travel.DistanceKm
		} else if _, ok := out[r.Year()]; !ok {
			out[r.Year()] = 0
		}
	}
	return out
}

func yearlyCosts(rows []cost.Row) []YearCost {
	byYear := make(map[int]*YearCost)
	for _, r := range rows {
		yc, ok := byYear[r.Year()]
		if !ok {
			yc = &YearCost{Year: r.Year()}
			byYear[r.Year()] = yc
		}
		fuel := decimal.Zero
		if r.FuelPaid.Valid {
			fuel = r.FuelPaid.Decimal
		}
		yc.Fuel = yc.Fuel.Add(fuel)
		yc.TotalEuro02 = yc.TotalEuro02.Add(fuel).Add(r.TollEuro02)
		yc.TotalEuro6 = yc.TotalEuro6.Add(fuel).Add(r.TollEuro6)
	}
	out := make([]YearCost, 0, len(byYear))
	for _, y := range slices.Sorted(maps.Keys(byYear)) {
		out = append(out, *byYear[y])
	}
	return out
}
