package graphhopper

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
)

// Road classes with special meaning downstream.
const (
	Motorway         = "motorway"
	DefaultRoadClass = "default_road_class"
)

// Route is a road route between two apiaries.
type Route struct {
	DistanceKm float64
	TimeMin    float64
	// RoadClassKm splits DistanceKm by OSM road class. Motorway is always
	// present, zero when the route has none.
	RoadClassKm map[string]float64
	// Points holds every n-th [lon, lat, elevation] of the route geometry.
	Points [][]float64
}

// MotorwayKm is the distance travelled on motorways.
func (r *Route) MotorwayKm() float64 { return r.RoadClassKm[Motorway] }

type routeResponse struct {
	Paths   []path `json:"paths"`
	Message string `json:"message"`
}

type path struct {
	Distance float64 `json:"distance"` // metres
	Time     float64 `json:"time"`     // milliseconds
	Points   struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"points"`
	Details struct {
		RoadClass []interval `json:"road_class"`
		Distance  []interval `json:"distance"`
	} `json:"details"`
}

// interval is a path detail entry: [from point, to point, value].
type interval struct {
	From  int
	To    int
	Class string
	Value float64
}

func (iv *interval) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return eris.Errorf("graphhopper: detail has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &iv.From); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &iv.To); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[2], &iv.Value); err == nil {
		return nil
	}
	return json.Unmarshal(raw[2], &iv.Class)
}

func (p path) toRoute(step int) *Route {
	r := &Route{
		DistanceKm:  math.Round(p.Distance) / 1000, // km to 3 dp
		TimeMin:     math.Round(p.Time/1000) / 60,
		RoadClassKm: roadClassKm(p.Details.RoadClass, p.Details.Distance),
	}
	for i := 0; i < len(p.Points.Coordinates); i += step {
		r.Points = append(r.Points, p.Points.Coordinates[i])
	}
	return r
}

// roadClassKm assigns each distance segment the class of the last road-class
// interval that covers it entirely and sums the segment lengths per class.
func roadClassKm(classes, distances []interval) map[string]float64 {
	out := make(map[string]float64, len(classes)+1)
	for _, c := range classes {
		out[c.Class] = 0
	}
	for _, d := range distances {
		class := DefaultRoadClass
		for _, c := range classes {
			if covers(c, d.From) && covers(c, d.To-1) {
				class = c.Class
			}
		}
		out[class] += d.Value / 1000
	}
	if _, ok := out[Motorway]; !ok {
		out[Motorway] = 0
	}
	return out
}

func covers(c interval, point int) bool {
	return point >= c.From && point < c.To
}
