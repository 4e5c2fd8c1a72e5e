package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/cost"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

// Costs calibrates fuel use against the transportation survey, writes the
// calibration workbook and costs the routed migrations of the cost threshold.
func (p *Pipeline) Costs(_ context.Context, _ string) (*model.StageResult, error) {
	samples, err := p.loadSurvey()
	if err != nil {
		return nil, err
	}
	calibration, err := cost.Calibrate(samples)
	if err != nil {
		return nil, err
	}
	consumption := calibration.Linear
	zap.L().Info("pipeline: fuel consumption calibrated",
		zap.Int("samples", consumption.N),
		zap.Float64("slope", consumption.Slope),
		zap.Float64("intercept", consumption.Intercept),
		zap.Float64("r2", consumption.R2),
		zap.Float64("aic_lin", consumption.AIC),
		zap.Float64("aic_exp", calibration.Exp.AIC),
	)

	cal := sheet.NewWorkbook()
	if err := cal.AddSheet(SheetCalibration, cost.CalibrationColumns, cost.EncodeCalibration(calibration)); err != nil {
		return nil, err
	}
	if err := cal.Save(p.out(p.cfg.Output.Calibration)); err != nil {
		return nil, err
	}

	tables, err := p.loadPriceTables()
	if err != nil {
		return nil, err
	}
	cutoff, err := p.cfg.Costs.CutoffDate()
	if err != nil {
		return nil, err
	}
	tables.Fuel = tables.Fuel.Before(cutoff)

	km := p.cfg.Costs.ThresholdKm
	t, err := sheet.Load(p.out(p.cfg.Output.Distances), DistanceSheet(km))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load routed migrations")
	}
	routed, err := sheet.DecodeRoutedRows(t)
	if err != nil {
		return nil, err
	}

	rows := cost.NewCalculator(consumption, tables, p.cfg.Costs.TollAbove).CostAll(routed, cutoff)
	wb := sheet.NewWorkbook()
	if err := wb.AddSheet(CostSheet(km), cost.Columns, cost.EncodeRows(rows)); err != nil {
		return nil, err
	}
	if err := wb.Save(p.out(p.cfg.Output.Costs)); err != nil {
		return nil, err
	}

	return &model.StageResult{
		Rows: len(rows),
		Metadata: map[string]any{
			"samples":     consumption.N,
			"r2":          consumption.R2,
			"r2_exp":      calibration.Exp.R2,
			"dropped":     len(routed) - len(rows),
			"fuel_prices": len(tables.Fuel),
			"toll_rates":  len(tables.Toll),
		},
	}, nil
}

func (p *Pipeline) loadSurvey() ([]cost.Sample, error) {
	t, err := sheet.Load(p.cfg.Input.Survey, SheetSurvey)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load transportation survey")
	}
	return cost.DecodeSurvey(t)
}

func (p *Pipeline) loadPriceTables() (cost.Tables, error) {
	var tables cost.Tables

	t, err := sheet.Load(p.cfg.Input.Fuel, SheetDiesel)
	if err != nil {
		return tables, eris.Wrap(err, "pipeline: load fuel prices")
	}
	if tables.Fuel, err = cost.DecodeFuelPrices(t); err != nil {
		return tables, err
	}

	if t, err = sheet.Load(p.cfg.Input.Fuel, SheetToll); err != nil {
		return tables, eris.Wrap(err, "pipeline: load toll rates")
	}
	if tables.Toll, err = cost.DecodeTollRates(t); err != nil {
		return tables, err
	}

	if t, err = sheet.Load(p.cfg.Input.Survey, SheetHoneyPrices); err != nil {
		return tables, eris.Wrap(err, "pipeline: load honey prices")
	}
	if tables.Honey, err = cost.DecodeHoneyPrices(t); err != nil {
		return tables, err
	}
	return tables, nil
}

// loadCalibration reads the fuel fits written by the costs stage.
func (p *Pipeline) loadCalibration() (cost.Calibration, error) {
	t, err := sheet.Load(p.out(p.cfg.Output.Calibration), SheetCalibration)
	if err != nil {
		return cost.Calibration{}, eris.Wrap(err, "pipeline: load fuel calibration")
	}
	return cost.DecodeCalibration(t)
}

// loadCosted reads the costed migrations written by the costs stage.
func (p *Pipeline) loadCosted() ([]cost.Row, error) {
	t, err := sheet.Load(p.out(p.cfg.Output.Costs), CostSheet(p.cfg.Costs.ThresholdKm))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load costed migrations")
	}
	return cost.DecodeRows(t)
}
