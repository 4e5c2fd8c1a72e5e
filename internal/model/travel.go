package model

// Travel is the road route found for a movement.
type Travel struct {
	DistanceKm float64 `json:"distance_km"`
	TimeMin    float64 `json:"time_min"`
	MotorwayKm float64 `json:"motorway_km"`
	// Path is the sampled route geometry as WKT.
	Path string `json:"path"`
}

// RoutedRow is a chain row with its road route. Travel is nil when no
// route could be found.
type RoutedRow struct {
	ChainRow
	Travel *Travel `json:"travel,omitempty"`
}

// Routed reports whether the row has a road route.
func (r RoutedRow) Routed() bool { return r.Travel != nil }

// MotorwayShare is the fraction of the travel distance on motorways, or 0
// without a route.
func (r RoutedRow) MotorwayShare() float64 {
	if r.Travel == nil || r.Travel.DistanceKm == 0 {
		return 0
	}
	return r.Travel.MotorwayKm / r.Travel.DistanceKm
}
