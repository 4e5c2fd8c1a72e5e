package stats

import (
	"regexp"
	"strconv"

	"github.com/BeeKIS/honeybee-migrations/internal/sheet"
)

// Census sheet columns. Yearly October counts live in CENSUS_<year>_10.
const (
	ColHolding  = "KMG_MID"
	ColLocation = "GMID"
)

var censusCol = regexp.MustCompile(`^census_(\d{4})_10$`)

// CensusEntry is the October colony count of one apiary in one year.
type CensusEntry struct {
	Holding  string
	Location string
	Year     int
	Colonies float64
}

// DecodeCensus melts the wide census sheet into one entry per apiary and
// year. Blank counts, zero counts and apiaries without a holding are dropped.
func DecodeCensus(t *sheet.Table) ([]CensusEntry, error) {
	if err := t.Require(ColHolding, ColLocation); err != nil {
		return nil, err
	}

	type yearCol struct {
		year int
		name string
	}
	var cols []yearCol
	for _, h := range t.Header {
		m := censusCol.FindStringSubmatch(sheet.NormalizeHeader(h))
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		cols = append(cols, yearCol{year: y, name: h})
	}

	var out []CensusEntry
	for _, c := range cols {
		for r := 0; r < t.Len(); r++ {
			holding := t.Get(r, ColHolding)
			if holding == "" {
				continue
			}
			n, ok, err := t.Float(r, c.name)
			if err != nil {
				return nil, err
			}
			if !ok || n <= 0 {
				continue
			}
			out = append(out, CensusEntry{Holding: holding, Location: t.Get(r, ColLocation), Year: c.year, Colonies: n})
		}
	}
	return out, nil
}
