package cost

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

// Price table columns.
const (
	ColStart      = "start_date"
	ColEnd        = "end_date"
	ColPrice      = "price"
	ColRateEuro02 = "Euro 0 - 2"
	ColRateEuro6  = "Euro 6, EEV"
	ColYear       = "year"
	ColHoney      = "recommended retail price [kg]"
)

// Period is a date range with both ends inclusive.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls within the period.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// FuelPrice is the diesel price per litre over a period.
type FuelPrice struct {
	Period
	PerLitre decimal.Decimal
}

// FuelPrices is a diesel price history in sheet order.
type FuelPrices []FuelPrice

// On returns the price in force on d. Overlapping periods resolve to the
// last one listed.
func (fp FuelPrices) On(d time.Time) (decimal.Decimal, bool) {
	for i := len(fp) - 1; i >= 0; i-- {
		if fp[i].Contains(d) {
			return fp[i].PerLitre, true
		}
	}
	return decimal.Zero, false
}

// Before drops the periods starting on or after cutoff.
func (fp FuelPrices) Before(cutoff time.Time) FuelPrices {
	out := make(FuelPrices, 0, len(fp))
	for _, p := range fp {
		if p.Start.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// TollRate is the motorway toll per kilometre for the two emission classes
// of heavy vehicles.
type TollRate struct {
	Period
	Euro02 decimal.Decimal
	Euro6  decimal.Decimal
}

// TollRates is a toll tariff history in sheet order.
type TollRates []TollRate

// On returns the tariff in force on d, last listed first.
func (tr TollRates) On(d time.Time) (TollRate, bool) {
	for i := len(tr) - 1; i >= 0; i-- {
		if tr[i].Contains(d) {
			return tr[i], true
		}
	}
	return TollRate{}, false
}

// HoneyPrices maps a year to the recommended retail honey price per kg.
type HoneyPrices map[int]decimal.Decimal

// DecodeFuelPrices reads a diesel sheet. Rows with a blank price are skipped.
func DecodeFuelPrices(t *sheet.Table) (FuelPrices, error) {
	if err := t.Require(ColStart, ColEnd, ColPrice); err != nil {
		return nil, err
	}
	var out FuelPrices
	for r := 0; r < t.Len(); r++ {
		if t.Get(r, ColPrice) == "" {
			continue
		}
		p, err := decodePeriod(t, r)
		if err != nil {
			return nil, err
		}
		price, err := decodeDecimal(t, r, ColPrice)
		if err != nil {
			return nil, err
		}
		out = append(out, FuelPrice{Period: p, PerLitre: price})
	}
	return out, nil
}

// DecodeTollRates reads a toll sheet.
func DecodeTollRates(t *sheet.Table) (TollRates, error) {
	if err := t.Require(ColStart, ColEnd, ColRateEuro02, ColRateEuro6); err != nil {
		return nil, err
	}
	var out TollRates
	for r := 0; r < t.Len(); r++ {
		p, err := decodePeriod(t, r)
		if err != nil {
			return nil, err
		}
		e2, err := decodeDecimal(t, r, ColRateEuro02)
		if err != nil {
			return nil, err
		}
		e6, err := decodeDecimal(t, r, ColRateEuro6)
		if err != nil {
			return nil, err
		}
		out = append(out, TollRate{Period: p, Euro02: e2, Euro6: e6})
	}
	return out, nil
}

// DecodeHoneyPrices reads the honey price sheet of the survey workbook.
func DecodeHoneyPrices(t *sheet.Table) (HoneyPrices, error) {
	if err := t.Require(ColYear, ColHoney); err != nil {
		return nil, err
	}
	out := make(HoneyPrices, t.Len())
	for r := 0; r < t.Len(); r++ {
		y, ok, err := t.Int(r, ColYear)
		if err != nil {
			return nil, err
		}
		if !ok || t.Get(r, ColHoney) == "" {
			continue
		}
		price, err := decodeDecimal(t, r, ColHoney)
		if err != nil {
			return nil, err
		}
		out[y] = price
	}
	return out, nil
}

func decodePeriod(t *sheet.Table, r int) (Period, error) {
	start, ok, err := t.Date(r, ColStart)
	if err != nil || !ok {
		return Period{}, eris.Wrapf(errOrMissing(err), "cost: row %d start date", r+2)
	}
	end, ok, err := t.Date(r, ColEnd)
	if err != nil || !ok {
		return Period{}, eris.Wrapf(errOrMissing(err), "cost: row %d end date", r+2)
	}
	if end.Before(start) {
		return Period{}, eris.Errorf("cost: row %d ends before it starts", r+2)
	}
	return Period{Start: start, End: end}, nil
}

func decodeDecimal(t *sheet.Table, r int, col string) (decimal.Decimal, error) {
	f, ok, err := t.Float(r, col)
	if err != nil || !ok {
		return decimal.Zero, eris.Wrapf(errOrMissing(err), "cost: row %d %s", r+2, col)
	}
	return decimal.NewFromFloat(f), nil
}

var errMissing = eris.New("missing value")

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return errMissing
}
