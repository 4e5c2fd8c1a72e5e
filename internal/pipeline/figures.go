package pipeline

import (
	"context"

	"github.com/BeeKIS/honeybee-migrations/internal/figure"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Figures renders the PNG figures into the figure directory.
func (p *Pipeline) Figures(_ context.Context, _ string) (*model.StageResult, error) {
	rep, err := p.report()
	if err != nil {
		return nil, err
	}
	samples, err := p.loadSurvey()
	if err != nil {
		return nil, err
	}
	calibration, err := p.loadCalibration()
	if err != nil {
		return nil, err
	}
	costed, err := p.loadCosted()
	if err != nil {
		return nil, err
	}

	paths, err := figure.NewRenderer(p.out(p.cfg.Output.Figures)).All(figure.Input{
		Report:  rep,
		Samples: samples,
		Fuel:    calibration.Linear,
		FuelExp: calibration.Exp,
		Costed:  costed,
	})
	if err != nil {
		return nil, err
	}
	return &model.StageResult{Rows: len(paths), Metadata: map[string]any{"files": paths}}, nil
}
