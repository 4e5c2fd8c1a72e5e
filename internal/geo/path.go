package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// TravelPath converts [lon, lat(, elevation)] route points to a WGS84 line.
// Returns nil for fewer than two points.
func TravelPath(points [][]float64) *geom.LineString {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		flat = append(flat, p[0], p[1])
	}
	if len(flat) < 4 {
		return nil
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
}

// MarshalPath renders a travel path as WKT. A nil path renders empty.
func MarshalPath(ls *geom.LineString) (string, error) {
	if ls == nil {
		return "", nil
	}
	s, err := wkt.Marshal(ls)
	if err != nil {
		return "", eris.Wrap(err, "geo: marshal path")
	}
	return s, nil
}

// UnmarshalPath parses a WKT LINESTRING. Empty input returns nil.
func UnmarshalPath(s string) (*geom.LineString, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "geo: unmarshal path")
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, eris.Errorf("geo: expected LINESTRING, got %T", g)
	}
	return ls, nil
}

// shapefile attribute layout; dBASE field names are limited to 10 characters.
var pathFields = []shp.Field{
	shp.StringField("CHAIN_ID", 36),
	shp.StringField("MOVE_ID", 36),
	shp.NumberField("YEAR", 4),
	shp.NumberField("COLONIES", 6),
	shp.NumberField("SYNTH", 1),
	shp.FloatField("AIR_KM", 10, 3),
}

// WritePaths exports every chain row as a straight polyline from origin to
// destination in geographic coordinates. Returns the number of records written.
func WritePaths(path string, rows []model.ChainRow) (int, error) {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return 0, eris.Wrapf(err, "geo: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(pathFields); err != nil {
		return 0, eris.Wrap(err, "geo: set shapefile fields")
	}

	n := 0
	for _, r := range rows {
		line := shp.NewPolyLine([][]shp.Point{{
			{X: r.Origin.Lon, Y: r.Origin.Lat},
			{X: r.Dest.Lon, Y: r.Dest.Lat},
		}})
		idx := int(w.Write(line))

		synth := 0
		if r.Synthesized {
			synth = 1
		}
		attrs := []any{r.ChainID, r.ID, r.BatchYear, r.Colonies, synth, r.AirDistanceKm}
		for field, v := range attrs {
			if err := w.WriteAttribute(idx, field, v); err != nil {
				zap.L().Warn("geo: write shapefile attribute",
					zap.String("movement", r.ID), zap.Int("field", field), zap.Error(err))
			}
		}
		n++
	}
	return n, nil
}
