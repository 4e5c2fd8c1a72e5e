package stats

import (
	"maps"
	"slices"

	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

func byYearSheet(name, value string, b ByYear) sheet.Sheet {
	s := sheet.Sheet{Name: name, Header: []string{"year", value}}
	for _, y := range b.Years() {
		s.Rows = append(s.Rows, []any{y, b[y]})
	}
	return s
}

func byWeekSheet(name string, b ByWeek) sheet.Sheet {
	s := sheet.Sheet{Name: name, Header: []string{"year", "week", "FAMILY_MOVE"}}
	for _, k := range b.Keys() {
		s.Rows = append(s.Rows, []any{k.Year, k.Week, b[k]})
	}
	return s
}

func packagingSheet(name string, bins []Bin) sheet.Sheet {
	s := sheet.Sheet{Name: name, Header: []string{"FAMILY_MOVE", "count"}}
	for _, b := range bins {
		s.Rows = append(s.Rows, []any{b.Colonies, b.Count})
	}
	return s
}

// Sheets renders the report as the sheets of the statistics workbook.
func (r Report) Sheets() []sheet.Sheet {
	pooled := sheet.Sheet{Name: "Weekly migrations pooled", Header: []string{"week", "FAMILY_MOVE"}}
	for _, w := range slices.Sorted(maps.Keys(r.WeeklyPooled)) {
		pooled.Rows = append(pooled.Rows, []any{w, r.WeeklyPooled[w]})
	}

	summary := sheet.Sheet{Name: "Travel - descriptive stats", Header: []string{"statistic", "travel_distances"}}
	for i, v := range r.DistanceSummary.Values() {
		summary.Rows = append(summary.Rows, []any{SummaryColumns[i], v})
	}

	costs := sheet.Sheet{
		Name:   "Costs of transport, fuel, toll",
		Header: []string{"year", "fuel costs only", "total cost Euro 0 - 2", "total cost Euro 6, EEV"},
	}
	for _, c := range r.Costs {
		costs.Rows = append(costs.Rows, []any{c.Year, c.Fuel.Round(2), c.TotalEuro02.Round(2), c.TotalEuro6.Round(2)})
	}

	return []sheet.Sheet{
		byYearSheet("Number of beekeepers per year", "KMG_MID", r.Beekeepers),
		byYearSheet("Beekeepers that migrated", "n_of_migrations", r.Migrating),
		byYearSheet("Beekeepers that migrated pruned", "n_of_migrations", r.MigratingPruned),
		byYearSheet("Small beekprs migrated pruned", "n_of_migrations", r.MigratingSmall),
		byYearSheet("Migrations yearly", "n_of_migrations", r.Migrations),
		byYearSheet("Migrations yearly pruned", "n_of_migrations", r.MigrationsPruned),
		byYearSheet("Migrations yearly pruned-small", "n_of_migrations", r.MigrationsSmall),
		byYearSheet("Colony migrations yrly", "n_of_colony_migrations", r.Colonies),
		byYearSheet("Colonies migrated pruned", "n_of_colony_migrations", r.ColoniesPruned),
		byWeekSheet("Weekly migrations, yearly", r.Weekly),
		byWeekSheet("Weekly migrations pruned yearly", r.WeeklyPruned),
		pooled,
		packagingSheet("Colony packaging", r.Packaging),
		packagingSheet("Colony packaging pruned", r.PackagingPruned),
		byYearSheet("Traveled distances", "travel_distances", r.Distance),
		byYearSheet("Migrations yearly - small", "travel_distances", r.DistanceSmall),
		summary,
		costs,
	}
}

// CostPerHiveKmSheet renders per-load cost summaries.
func CostPerHiveKmSheet(rows []LoadSummary) sheet.Sheet {
	s := sheet.Sheet{
		Name:   "cost per hive per kilometer",
		Header: slices.Concat([]string{"FAMILY_MOVE", "year"}, SummaryColumns),
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, slices.Concat([]any{r.Colonies, r.Year}, r.Values()))
	}
	return s
}

// ReferenceFuelSheet renders the modelled fuel use of the reference loads.
func ReferenceFuelSheet(points []ReferencePoint) sheet.Sheet {
	s := sheet.Sheet{
		Name:   "modelled fuel consumption",
		Header: []string{"colonies", "Distance", "Fuel consumption", "Fuel consumption unc"},
	}
	for _, p := range points {
		s.Rows = append(s.Rows, []any{p.Colonies, p.DistanceKm, p.Litres, p.LitresStd})
	}
	return s
}
