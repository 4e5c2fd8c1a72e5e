// Package pipeline runs the beemig stages over the study workbooks and
// records every run in the ledger.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/chain"
	"github.com/BeeKIS/honeybee-migrations/internal/config"
	"github.com/BeeKIS/honeybee-migrations/internal/geo"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/store"
	"github.com/BeeKIS/honeybee-migrations/pkg/graphhopper"
)

// Stage names, in pipeline order.
const (
	StageChains    = "chains"
	StageDistances = "distances"
	StageCosts     = "costs"
	StageStats     = "stats"
	StageModel     = "model"
	StageFigures   = "figures"
	StageExport    = "export"
)

// StageFunc does the work of one stage. A nil result is a completed stage
// with nothing to report.
type StageFunc func(ctx context.Context, runID string) (*model.StageResult, error)

// Stage is a named unit of pipeline work.
type Stage struct {
	Name string
	Run  StageFunc
}

// Pipeline wires configuration, the run ledger and the router into stages.
type Pipeline struct {
	cfg    *config.Config
	store  store.Store
	router graphhopper.Router
}

// New creates a Pipeline. router may be nil when no stage needs road routes.
func New(cfg *config.Config, st store.Store, router graphhopper.Router) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, router: router}
}

// Execute records a run of command, runs stages in order and stops at the
// first failing stage.
func (p *Pipeline) Execute(ctx context.Context, command string, stages ...Stage) (*model.Run, error) {
	log := zap.L().With(zap.String("command", command))
	// Ledger writes land even after ctx is cancelled.
	ledger := context.WithoutCancel(ctx)

	run, err := p.store.CreateRun(ledger, command)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("pipeline: run started", zap.Int("stages", len(stages)))

	var runErr error
	for _, s := range stages {
		if ctx.Err() != nil {
			runErr = eris.Wrap(ctx.Err(), "pipeline: cancelled")
			break
		}
		res := p.trackStage(ctx, ledger, log, run.ID, s)
		run.Stages = append(run.Stages, model.Stage{
			RunID: run.ID, Name: s.Name, Status: res.Status, Result: res,
		})
		if res.Status == model.StageStatusFailed {
			runErr = eris.Errorf("pipeline: stage %s: %s", s.Name, res.Error)
			break
		}
	}

	if err := p.store.FinishRun(ledger, run.ID, runErr); err != nil {
		log.Warn("pipeline: failed to finish run", zap.Error(err))
	}
	run.Status = model.RunStatusComplete
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = runErr.Error()
		log.Error("pipeline: run failed", zap.Error(runErr))
		return run, runErr
	}
	log.Info("pipeline: run complete")
	return run, nil
}

func (p *Pipeline) trackStage(ctx, ledger context.Context, log *zap.Logger, runID string, s Stage) *model.StageResult {
	stage, stageErr := p.store.CreateStage(ledger, runID, s.Name)
	if stageErr != nil {
		log.Warn("pipeline: failed to create stage", zap.String("stage", s.Name), zap.Error(stageErr))
	}

	start := time.Now()
	res, fnErr := s.Run(ctx, runID)
	duration := time.Since(start).Milliseconds()

	if res == nil {
		res = &model.StageResult{}
	}
	res.Duration = duration

	switch {
	case fnErr != nil:
		res.Status = model.StageStatusFailed
		res.Error = fnErr.Error()
		log.Error("pipeline: stage failed",
			zap.String("stage", s.Name),
			zap.Int64("duration_ms", duration),
			zap.Error(fnErr),
		)
	case res.Status == model.StageStatusSkipped:
		log.Info("pipeline: stage skipped", zap.String("stage", s.Name))
	default:
		res.Status = model.StageStatusComplete
		log.Info("pipeline: stage complete",
			zap.String("stage", s.Name),
			zap.Int("rows", res.Rows),
			zap.Int64("duration_ms", duration),
		)
	}

	if stage != nil {
		if err := p.store.CompleteStage(ledger, stage.ID, res); err != nil {
			log.Warn("pipeline: failed to complete stage", zap.String("stage", s.Name), zap.Error(err))
		}
	}
	return res
}

// Stage returns the named stage.
func (p *Pipeline) Stage(name string) (Stage, error) {
	var fn StageFunc
	switch name {
	case StageChains:
		fn = p.Chains
	case StageDistances:
		fn = p.Distances
	case StageCosts:
		fn = p.Costs
	case StageStats:
		fn = p.Stats
	case StageModel:
		fn = p.Model
	case StageFigures:
		fn = p.Figures
	case StageExport:
		fn = p.Export
	default:
		return Stage{}, eris.Errorf("pipeline: unknown stage %q", name)
	}
	return Stage{Name: name, Run: fn}, nil
}

// All returns chains through figures in order. When offline, the distances
// stage only checks that routed sheets already exist.
func (p *Pipeline) All(offline bool) []Stage {
	distances := Stage{Name: StageDistances, Run: p.Distances}
	if offline {
		distances.Run = p.OfflineDistances
	}
	return []Stage{
		{Name: StageChains, Run: p.Chains},
		distances,
		{Name: StageCosts, Run: p.Costs},
		{Name: StageStats, Run: p.Stats},
		{Name: StageModel, Run: p.Model},
		{Name: StageFigures, Run: p.Figures},
	}
}

func (p *Pipeline) builder() *chain.Builder {
	b := chain.NewBuilder()
	b.Walker.CloseAtPermanent = p.cfg.Chains.CloseAtPermanent
	b.Synthesizer.ReturnAfter = p.cfg.Chains.ReturnAfter()
	b.AirDistance = geo.AirDistanceKm
	return b
}

func (p *Pipeline) thresholds() []chain.Threshold {
	out := make([]chain.Threshold, len(p.cfg.Chains.ThresholdsKm))
	for i, km := range p.cfg.Chains.ThresholdsKm {
		out[i] = chain.Threshold{MinAirDistanceKm: km, MinColonies: p.cfg.Chains.MinColonies}
	}
	return out
}

func (p *Pipeline) out(name string) string { return p.cfg.Output.Path(name) }
