package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
	"github.com/BeeKIS/honeybee-migrations/internal/stats"
)

// Stats writes the yearly migration statistics workbook.
func (p *Pipeline) Stats(_ context.Context, _ string) (*model.StageResult, error) {
	rep, err := p.report()
	if err != nil {
		return nil, err
	}
	sheets := rep.Sheets()
	wb := sheet.NewWorkbook()
	if err := wb.AddSheets(sheets...); err != nil {
		return nil, err
	}
	if err := wb.Save(p.out(p.cfg.Output.Stats)); err != nil {
		return nil, err
	}
	return &model.StageResult{
		Rows: len(sheets),
		Metadata: map[string]any{
			"years":              len(rep.Migrations),
			"travel_count":       rep.DistanceSummary.Count,
			"travel_mean_km":     rep.DistanceSummary.Mean,
			"beekeeper_years":    len(rep.Beekeepers),
			"packaging_bins_all": len(rep.Packaging),
		},
	}, nil
}

// report computes the statistics from the chain, cost and census workbooks.
func (p *Pipeline) report() (stats.Report, error) {
	all, err := p.loadChains(p.cfg.Stats.AllThresholdKm)
	if err != nil {
		return stats.Report{}, err
	}
	pruned, err := p.loadCosted()
	if err != nil {
		return stats.Report{}, err
	}
	t, err := sheet.Load(p.cfg.Input.Census, p.cfg.Input.CensusSheet)
	if err != nil {
		return stats.Report{}, eris.Wrap(err, "pipeline: load census")
	}
	census, err := stats.DecodeCensus(t)
	if err != nil {
		return stats.Report{}, err
	}
	return stats.Compute(all, pruned, census, stats.Options{
		CutoffYear: p.cfg.Stats.CutoffYear,
		SmallMax:   p.cfg.Stats.SmallMax,
	}), nil
}
