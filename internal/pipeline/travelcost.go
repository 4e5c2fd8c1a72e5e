package pipeline

import (
	"context"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
	"github.com/BeeKIS/honeybee-migrations/internal/stats"
)

// Model writes the travel cost model: cost per hive per km by load and year,
// and the modelled fuel use of the reference loads.
func (p *Pipeline) Model(_ context.Context, _ string) (*model.StageResult, error) {
	rows, err := p.loadCosted()
	if err != nil {
		return nil, err
	}
	calibration, err := p.loadCalibration()
	if err != nil {
		return nil, err
	}

	perLoad := stats.CostPerHiveKm(rows)
	ref := stats.ReferenceFuel(calibration.Linear, stats.DefaultReferenceLoads, stats.DefaultReferenceMaxKm, stats.DefaultReferenceStep)

	wb := sheet.NewWorkbook()
	if err := wb.AddSheets(stats.CostPerHiveKmSheet(perLoad), stats.ReferenceFuelSheet(ref)); err != nil {
		return nil, err
	}
	if err := wb.Save(p.out(p.cfg.Output.Model)); err != nil {
		return nil, err
	}
	return &model.StageResult{
		Rows:     len(perLoad),
		Metadata: map[string]any{"reference_points": len(ref)},
	}, nil
}
