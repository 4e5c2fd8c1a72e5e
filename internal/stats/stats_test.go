package stats

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/fit"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

func chainRow(chain, holding string, date time.Time, colonies int) model.ChainRow {
	return model.ChainRow{ChainID: chain, BatchYear: date.Year(), Movement: model.Movement{
		ID: chain + date.Format("0102"), OriginHolding: holding, Date: date, Colonies: colonies,
	}}
}

func costRow(chain, holding string, date time.Time, colonies int, km float64, fuel, toll string) cost.Row {
	r := cost.Row{RoutedRow: model.RoutedRow{ChainRow: chainRow(chain, holding, date, colonies)}}
	if km > 0 {
		r.Travel = &model.Travel{DistanceKm: km}
	}
	if fuel != "" {
		r.FuelPaid = decimal.NewNullDecimal(decimal.RequireFromString(fuel))
	}
	if toll != "" {
		r.TollEuro02 = decimal.RequireFromString(toll)
		r.TollEuro6 = r.TollEuro02.Div(decimal.NewFromInt(2))
	}
	return r
}

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, math.NaN(), 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Q50, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 4.0, s.Max)

	one := Describe([]float64{7})
	assert.Equal(t, 7.0, one.Q75)
	assert.True(t, math.IsNaN(one.Std))

	empty := Describe(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestDecodeCensus(t *testing.T) {
	entries, err := DecodeCensus(sheet.NewTable([][]string{
		{"KMG_MID", "GMID", "NAME", "CENSUS_2020_10", "CENSUS_2020_04", "CENSUS_2021_10"},
		{"K1", "G1", "x", "12", "99", "0"},
		{"", "G2", "x", "5", "", "6"},
		{"K2", "G3", "x", "", "", "8"},
	}))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, CensusEntry{Holding: "K1", Location: "G1", Year: 2020, Colonies: 12}, entries[0])
	assert.Equal(t, CensusEntry{Holding: "K2", Location: "G3", Year: 2021, Colonies: 8}, entries[1])
}

func TestDropOneWay(t *testing.T) {
	rows := []cost.Row{
		costRow("a", "K1", d(2020, 4, 1), 10, 5, "", ""),
		costRow("b", "K1", d(2020, 4, 2), 10, 5, "", ""),
		costRow("a", "", d(2020, 5, 1), 10, 5, "", ""),
	}
	got := DropOneWay(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ChainID)
	assert.Equal(t, "a", got[1].ChainID)
	assert.Len(t, rows, 3)
}

func testReport() Report {
	all := []model.ChainRow{
		chainRow("a", "K1", d(2020, 4, 6), 10),
		chainRow("a", "", d(2020, 5, 6), 10),
		chainRow("b", "K2", d(2020, 4, 7), 40),
		chainRow("c", "K1", d(2021, 6, 1), 20),
		chainRow("z", "K9", d(2023, 3, 1), 5),
	}
	pruned := []cost.Row{
		costRow("a", "K1", d(2020, 4, 6), 10, 12, "3.00", ""),
		costRow("a", "", d(2020, 5, 6), 10, 12, "3.00", ""),
		costRow("b", "K2", d(2020, 4, 7), 40, 30, "9.50", "4.00"),
		costRow("b", "", d(2020, 5, 7), 40, 0, "", ""),
		costRow("c", "K1", d(2021, 6, 1), 20, 8, "2.00", ""),
		costRow("z", "K9", d(2023, 3, 1), 5, 8, "1.00", ""),
		costRow("z", "", d(2023, 4, 1), 5, 8, "1.00", ""),
	}
	census := []CensusEntry{
		{Holding: "K1", Year: 2020, Colonies: 10},
		{Holding: "K1", Year: 2020, Colonies: 3},
		{Holding: "K2", Year: 2020, Colonies: 50},
		{Holding: "K1", Year: 2023, Colonies: 3},
	}
	return Compute(all, pruned, census, DefaultOptions())
}

func TestCompute_Counts(t *testing.T) {
	r := testReport()

	assert.Equal(t, ByYear{2020: 2}, r.Beekeepers)
	assert.Equal(t, ByYear{2020: 2, 2021: 1}, r.Migrating)
	assert.Equal(t, ByYear{2020: 2}, r.MigratingPruned)
	assert.Equal(t, ByYear{2020: 1}, r.MigratingSmall)

	assert.Equal(t, ByYear{2020: 3, 2021: 1}, r.Migrations)
	assert.Equal(t, ByYear{2020: 4}, r.MigrationsPruned)
	assert.Equal(t, ByYear{2020: 2}, r.MigrationsSmall)
	assert.Equal(t, ByYear{2020: 60, 2021: 20}, r.Colonies)
	assert.Equal(t, ByYear{2020: 100}, r.ColoniesPruned)
}

func TestCompute_WeeksAndPackaging(t *testing.T) {
	r := testReport()

	// 2020-04-06 and 2020-04-07 share ISO week 15
	assert.Equal(t, 50.0, r.Weekly[WeekKey{Year: 2020, Week: 15}])
	assert.Equal(t, []WeekKey{{2020, 15}, {2020, 19}, {2021, 22}}, r.Weekly.Keys())
	assert.Equal(t, 50.0, r.WeeklyPooled[15])
	assert.Equal(t, 50.0, r.WeeklyPooled[19])

	require.Len(t, r.Packaging, PackagingMax)
	assert.Equal(t, Bin{Colonies: 10, Count: 2}, r.Packaging[9])
	assert.Equal(t, Bin{Colonies: 40, Count: 1}, r.Packaging[39])
	assert.Equal(t, 2, r.PackagingPruned[39].Count)
}

func TestCompute_DistancesAndCosts(t *testing.T) {
	r := testReport()

	assert.Equal(t, ByYear{2020: 54}, r.Distance)
	assert.Equal(t, ByYear{2020: 24}, r.DistanceSmall)
	assert.Equal(t, 3, r.DistanceSummary.Count)
	assert.InDelta(t, 18, r.DistanceSummary.Mean, 1e-12)

	require.Len(t, r.Costs, 1)
	c := r.Costs[0]
	assert.Equal(t, 2020, c.Year)
	assert.True(t, c.Fuel.Equal(decimal.RequireFromString("15.50")))
	assert.True(t, c.TotalEuro02.Equal(decimal.RequireFromString("19.50")))
	assert.True(t, c.TotalEuro6.Equal(decimal.RequireFromString("17.50")))
}

func TestReport_SheetsWrite(t *testing.T) {
	wb := sheet.NewWorkbook()
	require.NoError(t, wb.AddSheets(testReport().Sheets()...))
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	require.NoError(t, wb.Save(path))

	names, err := sheet.SheetNames(path)
	require.NoError(t, err)
	assert.Len(t, names, 18)
	assert.Contains(t, names, "Weekly migrations pruned yearly")

	tb, err := sheet.Load(path, "Migrations yearly")
	require.NoError(t, err)
	assert.Equal(t, "2020", tb.Get(0, "year"))
	assert.Equal(t, "3", tb.Get(0, "n_of_migrations"))
}

func TestCostPerHiveKm(t *testing.T) {
	mk := func(colonies, year int, v string) cost.Row {
		r := costRow("x", "K", d(year, 5, 1), colonies, 10, "", "")
		if v != "" {
			r.CostPerHivePerKm = decimal.NewNullDecimal(decimal.RequireFromString(v))
		}
		return r
	}
	got := CostPerHiveKm([]cost.Row{
		mk(20, 2021, "0.02"), mk(10, 2020, "0.05"), mk(10, 2020, "0.03"), mk(10, 2019, ""),
	})
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Colonies)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 0.04, got[0].Mean, 1e-12)
	assert.Equal(t, 20, got[1].Colonies)

	s := CostPerHiveKmSheet(got)
	assert.Len(t, s.Header, 10)
	assert.Len(t, s.Rows[0], 10)
}

func TestReferenceFuel(t *testing.T) {
	l := fit.Linear{Slope: 0.002, Intercept: 0.08, Cov: [2][2]float64{{1e-6, 0}, {0, 1e-4}}}
	pts := ReferenceFuel(l, DefaultReferenceLoads, DefaultReferenceMaxKm, DefaultReferenceStep)
	require.Len(t, pts, 60)
	assert.Equal(t, ReferencePoint{Colonies: 10, DistanceKm: 0, Litres: 0, LitresStd: 0}, pts[0])

	last := pts[29]
	assert.Equal(t, 10, last.Colonies)
	assert.Equal(t, 580.0, last.DistanceKm)
	assert.InDelta(t, 580*0.1, last.Litres, 1e-9)
	assert.InDelta(t, 580*math.Sqrt(100e-6+1e-4), last.LitresStd, 1e-9)
	assert.Equal(t, 20, pts[30].Colonies)

	assert.Nil(t, ReferenceFuel(l, []int{10}, 100, 0))
}
