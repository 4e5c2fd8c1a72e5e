package figure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/fit"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/stats"
)

func costed(chain string, date time.Time, colonies int, km float64, perHiveKm string) cost.Row {
	r := cost.Row{RoutedRow: model.RoutedRow{ChainRow: model.ChainRow{ChainID: chain, BatchYear: date.Year(),
		Movement: model.Movement{ID: chain + date.Format("0102"), OriginHolding: "K" + chain, Date: date, Colonies: colonies}}}}
	r.Travel = &model.Travel{DistanceKm: km, TimeMin: km * 1.2, MotorwayKm: km / 3}
	r.FuelPaid = decimal.NewNullDecimal(decimal.NewFromFloat(km * 0.15))
	r.CostPerHivePerKm = decimal.NewNullDecimal(decimal.RequireFromString(perHiveKm))
	return r
}

func testInput(t *testing.T) Input {
	t.Helper()
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	rows := []cost.Row{
		costed("a", day(2020, 4, 6), 10, 20, "0.012"),
		costed("a", day(2020, 6, 6), 10, 20, "0.011"),
		costed("b", day(2021, 4, 20), 40, 60, "0.006"),
		costed("b", day(2021, 7, 1), 40, 60, "0.007"),
	}
	var all []model.ChainRow
	for _, r := range rows {
		all = append(all, r.ChainRow)
	}

	samples := []cost.Sample{
		{Vehicle: "car", Unit: "trailer", Colonies: 10, LitresPer100: 10, LitresPerKm: 0.10},
		{Vehicle: "car", Unit: "trailer", Colonies: 20, LitresPer100: 12.5, LitresPerKm: 0.125},
		{Vehicle: "truck", Unit: "platform", Colonies: 60, LitresPer100: 19, LitresPerKm: 0.19},
	}
	cal, err := cost.Calibrate(samples)
	require.NoError(t, err)

	return Input{
		Report:  stats.Compute(all, rows, []stats.CensusEntry{{Holding: "Ka", Year: 2020, Colonies: 10}}, stats.DefaultOptions()),
		Samples: samples,
		Fuel:    cal.Linear,
		FuelExp: cal.Exp,
		Costed:  rows,
	}
}

func TestRenderer_All(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figures")
	paths, err := NewRenderer(dir).All(testInput(t))
	require.NoError(t, err)
	assert.Len(t, paths, 9)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
		assert.Equal(t, ".png", filepath.Ext(p))
	}
	assert.FileExists(t, filepath.Join(dir, "fuel_calibration.png"))
}

func TestRenderer_SkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewRenderer(dir).All(Input{Fuel: fit.Linear{}})
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestYearBars_AlignsYears(t *testing.T) {
	p, err := yearBars("t", "y",
		series{"a", stats.ByYear{2019: 1, 2021: 3}, teal},
		series{"b", stats.ByYear{2020: 2}, grey},
	)
	require.NoError(t, err)
	require.NotNil(t, p)
}
