// Package model holds the movement and chain records shared by the pipeline stages.
package model

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ApiaryKind classifies an apiary as registered (permanent) or seasonal (temporary).
type ApiaryKind string

const (
	Permanent ApiaryKind = "permanent"
	Temporary ApiaryKind = "temporary"
)

// Apiary codes as they appear in the registry exports.
const (
	CodeStationary = "CBS"
	CodePermanent  = "CBP"
	CodeTemporary  = "CBZ"
)

// ParseApiaryKind maps a registry apiary code to its kind.
func ParseApiaryKind(code string) (ApiaryKind, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case CodeStationary, CodePermanent:
		return Permanent, nil
	case CodeTemporary:
		return Temporary, nil
	default:
		return "", eris.Errorf("model: unknown apiary code %q", code)
	}
}

// Point is an apiary location in both the projected (metres) and the
// geographic reference system.
type Point struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Movement is one recorded (or synthesized) relocation of colonies between
// two apiaries.
type Movement struct {
	ID            string     `json:"id"`
	OriginID      string     `json:"origin_id"`
	DestID        string     `json:"dest_id"`
	OriginHolding string     `json:"origin_holding"`
	DestHolding   string     `json:"dest_holding"`
	OriginKind    ApiaryKind `json:"origin_kind"`
	DestKind      ApiaryKind `json:"dest_kind"`
	OriginCode    string     `json:"origin_code"`
	DestCode      string     `json:"dest_code"`
	Date          time.Time  `json:"date"`
	Colonies      int        `json:"colonies"`
	Origin        Point      `json:"origin"`
	Dest          Point      `json:"dest"`
	AirDistanceKm float64    `json:"air_distance_km"`

	Consumed    bool `json:"consumed"`
	Synthesized bool `json:"synthesized"`
}

// Year returns the calendar year of the move date.
func (m Movement) Year() int { return m.Date.Year() }

// Month returns the calendar month of the move date.
func (m Movement) Month() int { return int(m.Date.Month()) }

// ISOWeek returns the ISO-8601 week number of the move date.
func (m Movement) ISOWeek() int {
	_, w := m.Date.ISOWeek()
	return w
}

// DayOfYear returns the ordinal day of the move date.
func (m Movement) DayOfYear() int { return m.Date.YearDay() }

// Table is an ordered movement table. Row position is significant: a
// movement can only be followed by rows that come after it.
type Table []Movement

// Years returns the distinct move years in ascending order.
func (t Table) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, m := range t {
		y := m.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

// Clone returns a private copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// ChainRow is a movement that has been folded into a finalized chain.
type ChainRow struct {
	Movement
	ChainID string `json:"chain_id"`
	// BatchYear is the year whose batch produced the chain. It differs from
	// the movement's own year only for a synthesized return that crosses New Year.
	BatchYear int `json:"batch_year"`
}
