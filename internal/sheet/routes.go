package sheet

import (
	"slices"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Route columns appended by the distances stage.
const (
	ColTravelDistance = "travel_distances"
	ColTravelTime     = "travel_time"
	ColMotorway       = "motorway"
	ColTravelPoints   = "travel_points"
)

// RoutedColumns is the header written for routed chain sheets.
var RoutedColumns = slices.Concat(ChainColumns, []string{
	ColTravelDistance, ColTravelTime, ColMotorway, ColTravelPoints,
})

// EncodeRoutedRows renders routed rows in RoutedColumns order. Rows without
// a route get blank route cells.
func EncodeRoutedRows(rows []model.RoutedRow) [][]any {
	chain := make([]model.ChainRow, len(rows))
	for i, r := range rows {
		chain[i] = r.ChainRow
	}
	out := EncodeChainRows(chain)
	for i, r := range rows {
		if r.Travel == nil {
			out[i] = append(out[i], nil, nil, nil, nil)
			continue
		}
		out[i] = append(out[i], r.Travel.DistanceKm, r.Travel.TimeMin, r.Travel.MotorwayKm, r.Travel.Path)
	}
	return out
}

// DecodeRoutedRows reads a sheet written by EncodeRoutedRows. A row counts
// as routed when its travel distance is filled in.
func DecodeRoutedRows(t *Table) ([]model.RoutedRow, error) {
	if err := t.Require(ColTravelDistance); err != nil {
		return nil, err
	}
	chain, err := DecodeChainRows(t)
	if err != nil {
		return nil, err
	}

	out := make([]model.RoutedRow, len(chain))
	for r, c := range chain {
		out[r] = model.RoutedRow{ChainRow: c}
		dist, ok, err := t.Float(r, ColTravelDistance)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		tr := &model.Travel{DistanceKm: dist, Path: t.Get(r, ColTravelPoints)}
		if v, ok, err := t.Float(r, ColTravelTime); err == nil && ok {
			tr.TimeMin = v
		}
		if v, ok, err := t.Float(r, ColMotorway); err == nil && ok {
			tr.MotorwayKm = v
		}
		out[r].Travel = tr
	}
	return out, nil
}
