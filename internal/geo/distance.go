// Package geo computes straight-line distances between apiaries and exports
// migration paths for GIS tools.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

const earthRadiusKm = 6371.0088

// AirDistanceKm returns the straight-line distance between two apiaries.
// Projected coordinates (metres) are used when both ends have them,
// otherwise the great-circle distance between the geographic coordinates.
func AirDistanceKm(a, b model.Point) float64 {
	if hasProjected(a) && hasProjected(b) {
		return xy.Distance(geom.Coord{a.X, a.Y}, geom.Coord{b.X, b.Y}) / 1000
	}
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// HaversineKm returns the great-circle distance in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dp := (lat2 - lat1) * math.Pi / 180
	dl := (lon2 - lon1) * math.Pi / 180

	h := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func hasProjected(p model.Point) bool {
	return p.X != 0 || p.Y != 0
}

// FillAirDistances sets AirDistanceKm on every movement that lacks one.
// Returns the number of movements updated.
func FillAirDistances(t model.Table) int {
	n := 0
	for i := range t {
		if t[i].AirDistanceKm > 0 {
			continue
		}
		t[i].AirDistanceKm = AirDistanceKm(t[i].Origin, t[i].Dest)
		n++
	}
	return n
}
