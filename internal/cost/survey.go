package cost

import (
	"github.com/rotisserie/eris"

	"github.com/BeeKIS/honeybee-migrations/internal/fit"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

// Survey columns of the transportation sheet.
const (
	ColVehicle      = "towing vehicle"
	ColUnit         = "migratory unit"
	ColSurveyHives  = "no of colonies"
	ColFuelPer100   = "fuel consumption"
	ColFuelPerKm    = "fuel consumption [L / km]"
	calibrationWhat = "fuel consumption"
)

// Sample is one surveyed transport: the vehicle, the load and its fuel use.
type Sample struct {
	Vehicle      string
	Unit         string
	Colonies     float64
	LitresPer100 float64
	LitresPerKm  float64
}

// DecodeSurvey reads the transportation survey. Rows with any blank cell
// are dropped.
func DecodeSurvey(t *sheet.Table) ([]Sample, error) {
	if err := t.Require(ColVehicle, ColUnit, ColSurveyHives, ColFuelPer100, ColFuelPerKm); err != nil {
		return nil, err
	}
	var out []Sample
	for r := 0; r < t.Len(); r++ {
		s := Sample{Vehicle: t.Get(r, ColVehicle), Unit: t.Get(r, ColUnit)}
		if s.Vehicle == "" || s.Unit == "" {
			continue
		}
		var ok [3]bool
		var err error
		if s.Colonies, ok[0], err = t.Float(r, ColSurveyHives); err != nil {
			return nil, err
		}
		if s.LitresPer100, ok[1], err = t.Float(r, ColFuelPer100); err != nil {
			return nil, err
		}
		if s.LitresPerKm, ok[2], err = t.Float(r, ColFuelPerKm); err != nil {
			return nil, err
		}
		if ok[0] && ok[1] && ok[2] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Parameter boxes of the fuel-use fits.
var (
	FuelLinearBounds = fit.Bounds{SlopeMin: 0, SlopeMax: 5, InterceptMin: 0, InterceptMax: 100}
	FuelExpBounds    = fit.ExpBounds{Lo: [3]float64{0.001, 0, 0}, Hi: [3]float64{500, 50, 10}}
)

// Calibration holds both fuel-use models. Costs are priced with Linear; Exp
// is kept for comparison.
type Calibration struct {
	Linear fit.Linear
	Exp    fit.RiseExp
}

// Calibrate fits fuel use per km against the number of colonies carried.
func Calibrate(samples []Sample) (Calibration, error) {
	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i], y[i] = s.Colonies, s.LitresPerKm
	}
	l, err := fit.FitLinearBounded(x, y, FuelLinearBounds)
	if err != nil {
		return Calibration{}, eris.Wrap(err, "cost: calibrate fuel consumption")
	}
	e, err := fit.FitRiseExp(x, y, FuelExpBounds)
	if err != nil {
		return Calibration{}, eris.Wrap(err, "cost: calibrate fuel consumption")
	}
	return Calibration{Linear: l, Exp: e}, nil
}

// Calibration sheet columns.
const (
	ColWhat         = "what"
	ColR2           = "r_2_l"
	ColSlope        = "k_linear"
	ColIntercept    = "intercept_linear"
	ColSlopeStd     = "k_unc_lin"
	ColInterceptStd = "intercept_unc_lin"
	ColCov          = "cov_lin"
	ColAIC          = "aic_lin"
	ColExpR2        = "r_2_e"
	ColExpK         = "k_e"
	ColExpTop       = "top_e"
	ColExpOffset    = "offset_e"
	ColExpAIC       = "aic_exp"
	ColSamples      = "n"
)

// CalibrationColumns is the header of the fuel_calibration sheet.
var CalibrationColumns = []string{
	ColWhat, ColR2, ColSlope, ColIntercept, ColSlopeStd, ColInterceptStd, ColCov, ColAIC,
	ColExpR2, ColExpK, ColExpTop, ColExpOffset, ColExpAIC, ColSamples,
}

// EncodeCalibration renders both fits as the single fuel_calibration row.
func EncodeCalibration(c Calibration) [][]any {
	l, e := c.Linear, c.Exp
	return [][]any{{
		calibrationWhat, l.R2, l.Slope, l.Intercept, l.SlopeStd(), l.InterceptStd(), l.Cov[0][1], l.AIC,
		e.R2, e.K, e.Top, e.Offset, e.AIC, l.N,
	}}
}

// DecodeCalibration restores the fits from the fuel_calibration sheet. The
// exponential columns are optional.
func DecodeCalibration(t *sheet.Table) (Calibration, error) {
	if err := t.Require(ColSlope, ColIntercept, ColSlopeStd, ColInterceptStd); err != nil {
		return Calibration{}, err
	}
	if t.Len() == 0 {
		return Calibration{}, eris.New("cost: calibration sheet is empty")
	}

	cols := []string{
		ColSlope, ColIntercept, ColSlopeStd, ColInterceptStd, ColCov, ColR2, ColAIC,
		ColExpK, ColExpTop, ColExpOffset, ColExpR2, ColExpAIC,
	}
	vals := make([]float64, len(cols))
	for i, col := range cols {
		v, _, err := t.Float(0, col)
		if err != nil {
			return Calibration{}, err
		}
		vals[i] = v
	}
	n, _, err := t.Int(0, ColSamples)
	if err != nil {
		return Calibration{}, err
	}
	return Calibration{
		Linear: fit.Linear{
			Slope:     vals[0],
			Intercept: vals[1],
			Cov: [2][2]float64{
				{vals[2] * vals[2], vals[4]},
				{vals[4], vals[3] * vals[3]},
			},
			R2:  vals[5],
			AIC: vals[6],
			N:   n,
		},
		Exp: fit.RiseExp{K: vals[7], Top: vals[8], Offset: vals[9], R2: vals[10], AIC: vals[11], N: n},
	}, nil
}
