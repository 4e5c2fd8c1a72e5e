package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/chain"
	"github.com/BeeKIS/honeybee-migrations/internal/geo"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

var failureColumns = []string{"year", "movement_ids", "message"}

// Chains reconstructs migration chains for every configured threshold and
// writes one chain sheet per threshold, plus a failure sheet when chains
// could not be closed.
func (p *Pipeline) Chains(ctx context.Context, runID string) (*model.StageResult, error) {
	t, err := sheet.Load(p.cfg.Input.Movements, p.cfg.Input.MovementsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load movements")
	}
	table, rep, err := sheet.DecodeMovements(t)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: decode movements")
	}
	filled := geo.FillAirDistances(table)
	zap.L().Info("pipeline: movements loaded",
		zap.Int("rows", rep.Rows),
		zap.Int("dropped", rep.Dropped),
		zap.Int("generated_ids", rep.GeneratedIDs),
		zap.Int("air_distances_filled", filled),
	)

	results, err := p.builder().BuildAll(table, p.thresholds())
	if err != nil {
		return nil, err
	}

	wb := sheet.NewWorkbook()
	meta := map[string]any{
		"movements":            len(table),
		"dropped":              rep.Dropped,
		"air_distances_filled": filled,
	}
	total := 0
	for _, res := range results {
		km := res.Threshold.MinAirDistanceKm
		if err := wb.AddSheet(ChainSheet(km), sheet.ChainColumns, sheet.EncodeChainRows(res.Rows)); err != nil {
			return nil, err
		}
		if len(res.Failures) > 0 {
			if err := wb.AddSheet(ChainFailureSheet(km), failureColumns, encodeFailures(res.Failures)); err != nil {
				return nil, err
			}
			if err := p.store.RecordChainFailures(ctx, chainFailures(runID, km, res.Failures)); err != nil {
				zap.L().Warn("pipeline: failed to record chain failures", zap.Error(err))
			}
		}
		total += len(res.Rows)
		meta["chains_"+gap(km)] = res.Chains
		meta["synthesized_"+gap(km)] = res.Synthesized
		meta["failures_"+gap(km)] = len(res.Failures)
	}

	if err := wb.Save(p.out(p.cfg.Output.Chains)); err != nil {
		return nil, err
	}
	return &model.StageResult{Rows: total, Metadata: meta}, nil
}

func encodeFailures(fs []chain.Failure) [][]any {
	out := make([][]any, len(fs))
	for i, f := range fs {
		out[i] = []any{f.Year, strings.Join(f.MovementIDs, ","), f.Message}
	}
	return out
}

func chainFailures(runID string, km float64, fs []chain.Failure) []model.ChainFailure {
	out := make([]model.ChainFailure, len(fs))
	for i, f := range fs {
		out[i] = model.ChainFailure{
			RunID:       runID,
			ThresholdKm: km,
			Year:        f.Year,
			MovementIDs: f.MovementIDs,
			Message:     f.Message,
		}
	}
	return out
}

// loadChains reads the chain sheet of threshold km.
func (p *Pipeline) loadChains(km float64) ([]model.ChainRow, error) {
	t, err := sheet.Load(p.out(p.cfg.Output.Chains), ChainSheet(km))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load chains")
	}
	return sheet.DecodeChainRows(t)
}
