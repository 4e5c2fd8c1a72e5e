package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/BeeKIS/honeybee-migrations/internal/pipeline"
	"github.com/BeeKIS/honeybee-migrations/internal/resilience"
	"github.com/BeeKIS/honeybee-migrations/internal/store"
	"github.com/BeeKIS/honeybee-migrations/pkg/graphhopper"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "beemig.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRouter() *graphhopper.Client {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Routing.MaxAttempts

	return graphhopper.NewClient(cfg.Routing.URL,
		graphhopper.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Routing.TimeoutSecs) * time.Second}),
		graphhopper.WithRateLimit(cfg.Routing.RateLimit),
		graphhopper.WithProfile(cfg.Routing.Profile),
		graphhopper.WithPointStep(cfg.Routing.PointStep),
		graphhopper.WithRetry(retry),
	)
}

// withPipeline opens the ledger, builds the pipeline and closes the ledger
// after fn returns. The router is only created when routed is true.
func withPipeline(ctx context.Context, routed bool, fn func(p *pipeline.Pipeline) error) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	var p *pipeline.Pipeline
	if routed {
		p = pipeline.New(cfg, st, initRouter())
	} else {
		p = pipeline.New(cfg, st, nil)
	}
	return fn(p)
}
