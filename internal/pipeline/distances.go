package pipeline

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BeeKIS/honeybee-migrations/internal/geo"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
	"github.com/BeeKIS/honeybee-migrations/pkg/graphhopper"
)

const defaultConcurrency = 8

var failedRouteColumns = slices.Concat(sheet.ChainColumns, []string{"error"})

type failedRoute struct {
	row model.ChainRow
	err error
}

// Distances looks up the road route of every chain movement and writes the
// routed sheet and the failed-route sheet per routing threshold.
func (p *Pipeline) Distances(ctx context.Context, _ string) (*model.StageResult, error) {
	if p.router == nil {
		return nil, eris.New("pipeline: distances need a router")
	}

	wb := sheet.NewWorkbook()
	meta := map[string]any{}
	total := 0
	for _, km := range p.cfg.Routing.ThresholdsKm {
		rows, err := p.loadChains(km)
		if err != nil {
			return nil, err
		}
		routed, failed, err := p.route(ctx, rows)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: route threshold %s km", gap(km))
		}
		if err := wb.AddSheet(DistanceSheet(km), sheet.RoutedColumns, sheet.EncodeRoutedRows(routed)); err != nil {
			return nil, err
		}
		if err := wb.AddSheet(FailedRouteSheet(km), failedRouteColumns, encodeFailedRoutes(failed)); err != nil {
			return nil, err
		}
		total += len(routed)
		meta["routed_"+gap(km)] = len(routed) - len(failed)
		meta["failed_"+gap(km)] = len(failed)
	}

	if err := wb.Save(p.out(p.cfg.Output.Distances)); err != nil {
		return nil, err
	}
	return &model.StageResult{Rows: total, Metadata: meta}, nil
}

// OfflineDistances skips routing and only checks that the routed workbook
// from an earlier run is present.
func (p *Pipeline) OfflineDistances(_ context.Context, _ string) (*model.StageResult, error) {
	path := p.out(p.cfg.Output.Distances)
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "pipeline: offline run needs routed workbook %s", path)
	}
	names, err := sheet.SheetNames(path)
	if err != nil {
		return nil, err
	}
	for _, km := range p.cfg.Routing.ThresholdsKm {
		if !slices.Contains(names, DistanceSheet(km)) {
			return nil, eris.Errorf("pipeline: %s has no sheet %q", path, DistanceSheet(km))
		}
	}
	return &model.StageResult{
		Status:   model.StageStatusSkipped,
		Metadata: map[string]any{"workbook": path},
	}, nil
}

// route resolves rows concurrently. A movement without a route keeps a nil
// Travel and is reported as failed; any other routing error aborts.
func (p *Pipeline) route(ctx context.Context, rows []model.ChainRow) ([]model.RoutedRow, []failedRoute, error) {
	out := make([]model.RoutedRow, len(rows))
	var (
		mu     sync.Mutex
		failed []failedRoute
	)

	limit := p.cfg.Routing.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, r := range rows {
		out[i] = model.RoutedRow{ChainRow: r}
		g.Go(func() error {
			tr, err := p.travel(gCtx, r.Movement)
			if errors.Is(err, graphhopper.ErrNoRoute) {
				zap.L().Warn("pipeline: no route", zap.String("movement", r.ID), zap.Error(err))
				mu.Lock()
				failed = append(failed, failedRoute{row: r, err: err})
				mu.Unlock()
				return nil
			}
			if err != nil {
				return eris.Wrapf(err, "pipeline: route movement %s", r.ID)
			}
			out[i].Travel = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Keep the failed sheet in movement order regardless of completion order.
	pos := make(map[string]int, len(rows))
	for i, r := range rows {
		pos[r.ID] = i
	}
	slices.SortFunc(failed, func(a, b failedRoute) int { return pos[a.row.ID] - pos[b.row.ID] })
	return out, failed, nil
}

func (p *Pipeline) travel(ctx context.Context, m model.Movement) (*model.Travel, error) {
	rt, err := p.router.Route(ctx,
		graphhopper.LatLon{Lat: m.Origin.Lat, Lon: m.Origin.Lon},
		graphhopper.LatLon{Lat: m.Dest.Lat, Lon: m.Dest.Lon},
	)
	if err != nil {
		return nil, err
	}
	path, err := geo.MarshalPath(geo.TravelPath(rt.Points))
	if err != nil {
		return nil, err
	}
	return &model.Travel{
		DistanceKm: rt.DistanceKm,
		TimeMin:    rt.TimeMin,
		MotorwayKm: rt.MotorwayKm(),
		Path:       path,
	}, nil
}

func encodeFailedRoutes(fs []failedRoute) [][]any {
	rows := make([]model.ChainRow, len(fs))
	for i, f := range fs {
		rows[i] = f.row
	}
	out := sheet.EncodeChainRows(rows)
	for i, f := range fs {
		out[i] = append(out[i], f.err.Error())
	}
	return out
}
