// Package cost prices each migration: diesel burnt for the load and route,
// motorway toll for heavy vehicles, and the resulting cost per hive.
package cost

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BeeKIS/honeybee-migrations/internal/fit"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// DefaultTollAbove is the colony count above which a load travels on a
// tolled heavy vehicle.
const DefaultTollAbove = 28

// DefaultCutoff excludes the incomplete final year of the registry export.
var DefaultCutoff = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// Tables holds the price histories needed to cost a migration.
type Tables struct {
	Fuel  FuelPrices
	Toll  TollRates
	Honey HoneyPrices
}

// Row is a routed movement with its costs. Null values mark costs that could
// not be computed, for want of a route, a fuel price or a colony count.
type Row struct {
	model.RoutedRow

	FuelPrice      decimal.NullDecimal
	LitresPerKm    float64
	LitresPerKmStd float64
	Litres         float64
	FuelPaid       decimal.NullDecimal

	// Toll tariff per km; null when the load is below the toll threshold.
	TollRateEuro02 decimal.NullDecimal
	TollRateEuro6  decimal.NullDecimal
	TollEuro02     decimal.Decimal
	TollEuro6      decimal.Decimal

	MotorwayFraction float64
	CostPerHive      decimal.NullDecimal
	CostPerHivePerKm decimal.NullDecimal
	HoneyPrice       decimal.NullDecimal
}

// Calculator prices routed movements.
type Calculator struct {
	consumption fit.Linear
	tables      Tables
	tollAbove   int
}

// NewCalculator creates a Calculator from a fuel calibration and price tables.
// Loads of more than tollAbove colonies pay motorway toll.
func NewCalculator(consumption fit.Linear, tables Tables, tollAbove int) *Calculator {
	return &Calculator{consumption: consumption, tables: tables, tollAbove: tollAbove}
}

// Cost prices a single routed movement.
func (c *Calculator) Cost(r model.RoutedRow) Row {
	out := Row{RoutedRow: r}
	colonies := float64(r.Colonies)

	out.LitresPerKm = c.consumption.Predict(colonies)
	out.LitresPerKmStd = c.consumption.PredictStd(colonies)
	if price, ok := c.tables.Fuel.On(r.Date); ok {
		out.FuelPrice = decimal.NewNullDecimal(price)
	}
	if honey, ok := c.tables.Honey[r.Year()]; ok {
		out.HoneyPrice = decimal.NewNullDecimal(honey)
	}

	if r.Colonies > c.tollAbove {
		if rate, ok := c.tables.Toll.On(r.Date); ok {
			out.TollRateEuro02 = decimal.NewNullDecimal(rate.Euro02)
			out.TollRateEuro6 = decimal.NewNullDecimal(rate.Euro6)
		}
	}

	if !r.Routed() {
		return out
	}

	km := decimal.NewFromFloat(r.Travel.DistanceKm)
	motorway := decimal.NewFromFloat(r.Travel.MotorwayKm)
	out.Litres = out.LitresPerKm * r.Travel.DistanceKm
	out.MotorwayFraction = r.MotorwayShare()
	if out.TollRateEuro02.Valid {
		out.TollEuro02 = out.TollRateEuro02.Decimal.Mul(motorway)
		out.TollEuro6 = out.TollRateEuro6.Decimal.Mul(motorway)
	}

	if !out.FuelPrice.Valid {
		return out
	}
	paid := decimal.NewFromFloat(out.Litres).Mul(out.FuelPrice.Decimal)
	out.FuelPaid = decimal.NewNullDecimal(paid)

	if r.Colonies <= 0 {
		return out
	}
	perHive := paid.Add(out.TollEuro02).Div(decimal.NewFromInt(int64(r.Colonies)))
	out.CostPerHive = decimal.NewNullDecimal(perHive)
	if km.IsPositive() {
		out.CostPerHivePerKm = decimal.NewNullDecimal(perHive.Div(km))
	}
	return out
}

// CostAll prices every movement dated before cutoff, in input order.
func (c *Calculator) CostAll(rows []model.RoutedRow, cutoff time.Time) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			continue
		}
		out = append(out, c.Cost(r))
	}
	return out
}
