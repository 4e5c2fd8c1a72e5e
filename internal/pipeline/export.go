package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/BeeKIS/honeybee-migrations/internal/geo"
	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Export writes the chains of the cost threshold as a polyline shapefile.
func (p *Pipeline) Export(_ context.Context, _ string) (*model.StageResult, error) {
	rows, err := p.loadChains(p.cfg.Costs.ThresholdKm)
	if err != nil {
		return nil, err
	}
	path := p.out(p.cfg.Output.Paths)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create directory for %s", path)
	}
	n, err := geo.WritePaths(path, rows)
	if err != nil {
		return nil, err
	}
	return &model.StageResult{Rows: n, Metadata: map[string]any{"shapefile": path}}, nil
}
