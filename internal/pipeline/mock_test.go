package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BeeKIS/honeybee-migrations/pkg/graphhopper"
)

// --- Router Mock ---

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Route(ctx context.Context, from, to graphhopper.LatLon) (*graphhopper.Route, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*graphhopper.Route), args.Error(1)
}

func testRoute() *graphhopper.Route {
	return &graphhopper.Route{
		DistanceKm:  20,
		TimeMin:     25,
		RoadClassKm: map[string]float64{graphhopper.Motorway: 12, "primary": 8},
		Points:      [][]float64{{14.5, 46.0, 300}, {14.55, 46.05, 320}, {14.6, 46.1, 310}},
	}
}
