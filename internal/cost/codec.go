package cost

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

// Cost columns appended to routed chain sheets.
const (
	ColFuelPrice      = "Fuel price"
	ColLitresPerKm    = "fuel consumption per km"
	ColLitresPerKmStd = "fuel consumption per km unc"
	ColLitres         = "fuel consumption per travel"
	ColFuelPaid       = "fuel paid"
	ColTollEuro02     = "toll Euro 0 - 2"
	ColTollEuro6      = "toll Euro 6, EEV"
	ColMotorwayShare  = "percentage motorway"
	ColCostPerHive    = "cost per hive moved"
	ColCostPerHiveKm  = "cost per hive moved per kilometer"
	ColHoneyPrice     = "recommended retail honey price [kg]"
)

// Columns is the header written for costed sheets.
var Columns = slices.Concat(sheet.RoutedColumns, []string{
	ColFuelPrice, ColLitresPerKm, ColLitresPerKmStd, ColLitres, ColFuelPaid,
	ColRateEuro02, ColRateEuro6, ColTollEuro02, ColTollEuro6,
	ColMotorwayShare, ColCostPerHive, ColCostPerHiveKm, ColHoneyPrice,
})

// Output precision: whole money amounts to cents, unit costs to 4 places.
const (
	moneyPlaces    = 2
	unitCostPlaces = 4
)

// EncodeRows renders costed rows in Columns order.
func EncodeRows(rows []Row) [][]any {
	routed := make([]model.RoutedRow, len(rows))
	for i, r := range rows {
		routed[i] = r.RoutedRow
	}
	out := sheet.EncodeRoutedRows(routed)
	for i, r := range rows {
		litres := any(nil)
		if r.Routed() {
			litres = r.Litres
		}
		out[i] = append(out[i],
			r.FuelPrice, r.LitresPerKm, r.LitresPerKmStd, litres, round(r.FuelPaid, moneyPlaces),
			r.TollRateEuro02, r.TollRateEuro6,
			r.TollEuro02.Round(moneyPlaces), r.TollEuro6.Round(moneyPlaces),
			r.MotorwayFraction, round(r.CostPerHive, moneyPlaces), round(r.CostPerHivePerKm, unitCostPlaces),
			r.HoneyPrice,
		)
	}
	return out
}

func round(d decimal.NullDecimal, places int32) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(places))
}

// DecodeRows reads a costed sheet written by EncodeRows.
func DecodeRows(t *sheet.Table) ([]Row, error) {
	if err := t.Require(ColFuelPaid, ColTollEuro02, ColTollEuro6); err != nil {
		return nil, err
	}
	routed, err := sheet.DecodeRoutedRows(t)
	if err != nil {
		return nil, err
	}

	out := make([]Row, len(routed))
	for i, rr := range routed {
		r := Row{RoutedRow: rr}
		var decErr error
		nullable := func(col string) decimal.NullDecimal {
			v, ok, err := t.Float(i, col)
			if err != nil {
				decErr = err
			}
			if !ok || err != nil {
				return decimal.NullDecimal{}
			}
			return decimal.NewNullDecimal(decimal.NewFromFloat(v))
		}
		floatOf := func(col string) float64 {
			v, _, err := t.Float(i, col)
			if err != nil {
				decErr = err
			}
			return v
		}

		r.FuelPrice = nullable(ColFuelPrice)
		r.LitresPerKm = floatOf(ColLitresPerKm)
		r.LitresPerKmStd = floatOf(ColLitresPerKmStd)
		r.Litres = floatOf(ColLitres)
		r.FuelPaid = nullable(ColFuelPaid)
		r.TollRateEuro02 = nullable(ColRateEuro02)
		r.TollRateEuro6 = nullable(ColRateEuro6)
		r.TollEuro02 = nullable(ColTollEuro02).Decimal
		r.TollEuro6 = nullable(ColTollEuro6).Decimal
		r.MotorwayFraction = floatOf(ColMotorwayShare)
		r.CostPerHive = nullable(ColCostPerHive)
		r.CostPerHivePerKm = nullable(ColCostPerHiveKm)
		r.HoneyPrice = nullable(ColHoneyPrice)
		if decErr != nil {
			return nil, eris.Wrapf(decErr, "cost: decode row %d", i+2)
		}
		out[i] = r
	}
	return out, nil
}
