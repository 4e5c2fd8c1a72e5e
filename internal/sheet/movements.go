package sheet

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Movement columns as exported by the registry preprocessing.
const (
	ColID            = "uuid"
	ColOriginID      = "GMID_origin"
	ColDestID        = "GMID_dest"
	ColOriginHolding = "KMG_MID_origin"
	ColDestHolding   = "KMG_MID_dest"
	ColOriginType    = "TYPE_origin"
	ColDestType      = "TYPE"
	ColDate          = "DATE_MOVE"
	ColColonies      = "FAMILY_MOVE"
	ColOriginX       = "X_origin"
	ColOriginY       = "Y_origin"
	ColDestX         = "X_COORDINATE"
	ColDestY         = "Y_COORDINATE"
	ColOriginLat     = "origin_lat"
	ColOriginLon     = "origin_long"
	ColDestLat       = "dest_lat"
	ColDestLon       = "dest_long"
	ColAirDistance   = "air_distance"

	ColYear      = "year"
	ColMonth     = "month"
	ColWeek      = "week"
	ColDayInYear = "DayinYear"
	ColFlag      = "flag"
	ColGenerated = "generated_trip_flag"
	ColChainID   = "uuid_migration"
	ColBatchYear = "batch_year"
)

// requiredMovementCols must be present for a sheet to decode as movements.
var requiredMovementCols = []string{
	ColOriginID, ColDestID, ColOriginType, ColDestType, ColDate, ColColonies,
	ColOriginLat, ColOriginLon, ColDestLat, ColDestLon,
}

// ChainColumns is the header written for chain sheets.
var ChainColumns = []string{
	ColID, ColOriginID, ColDestID, ColOriginHolding, ColDestHolding,
	ColOriginType, ColDestType, ColDate, ColColonies,
	ColOriginX, ColOriginY, ColDestX, ColDestY,
	ColOriginLat, ColOriginLon, ColDestLat, ColDestLon, ColAirDistance,
	ColYear, ColMonth, ColWeek, ColDayInYear,
	ColFlag, ColGenerated, ColChainID, ColBatchYear,
}

// DecodeReport counts the rows dropped while decoding.
type DecodeReport struct {
	Rows           int
	Dropped        int
	GeneratedIDs   int
	MissingAirDist int
}

// DecodeMovements maps sheet rows to movements in sheet order. Rows with an
// unknown apiary code, unparseable date or colony count, or missing
// coordinates are dropped and logged.
func DecodeMovements(t *Table) (model.Table, DecodeReport, error) {
	if err := t.Require(requiredMovementCols...); err != nil {
		return nil, DecodeReport{}, err
	}

	rep := DecodeReport{Rows: t.Len()}
	out := make(model.Table, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		m, err := decodeMovement(t, r)
		if err != nil {
			rep.Dropped++
			zap.L().Warn("sheet: dropping movement row", zap.Int("row", r+2), zap.Error(err))
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
			rep.GeneratedIDs++
		}
		if m.AirDistanceKm == 0 {
			rep.MissingAirDist++
		}
		out = append(out, m)
	}
	return out, rep, nil
}

func decodeMovement(t *Table, r int) (model.Movement, error) {
	m := model.Movement{
		ID:            t.Get(r, ColID),
		OriginID:      t.Get(r, ColOriginID),
		DestID:        t.Get(r, ColDestID),
		OriginHolding: t.Get(r, ColOriginHolding),
		DestHolding:   t.Get(r, ColDestHolding),
		OriginCode:    t.Get(r, ColOriginType),
		DestCode:      t.Get(r, ColDestType),
	}
	if m.OriginID == "" || m.DestID == "" {
		return m, eris.New("missing location id")
	}

	var err error
	if m.OriginKind, err = model.ParseApiaryKind(m.OriginCode); err != nil {
		return m, err
	}
	if m.DestKind, err = model.ParseApiaryKind(m.DestCode); err != nil {
		return m, err
	}

	date, ok, err := t.Date(r, ColDate)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, eris.New("missing move date")
	}
	m.Date = date

	colonies, ok, err := t.Int(r, ColColonies)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, eris.New("missing colony count")
	}
	m.Colonies = colonies

	if m.Origin, err = decodePoint(t, r, ColOriginX, ColOriginY, ColOriginLat, ColOriginLon); err != nil {
		return m, eris.Wrap(err, "origin")
	}
	if m.Dest, err = decodePoint(t, r, ColDestX, ColDestY, ColDestLat, ColDestLon); err != nil {
		return m, eris.Wrap(err, "destination")
	}

	if d, ok, err := t.Float(r, ColAirDistance); err != nil {
		return m, err
	} else if ok {
		m.AirDistanceKm = d
	}
	return m, nil
}

// decodePoint requires geographic coordinates; projected ones are optional.
func decodePoint(t *Table, r int, xCol, yCol, latCol, lonCol string) (model.Point, error) {
	var p model.Point
	lat, okLat, err := t.Float(r, latCol)
	if err != nil {
		return p, err
	}
	lon, okLon, err := t.Float(r, lonCol)
	if err != nil {
		return p, err
	}
	if !okLat || !okLon {
		return p, eris.New("missing coordinates")
	}
	p.Lat, p.Lon = lat, lon

	if x, ok, err := t.Float(r, xCol); err == nil && ok {
		p.X = x
	}
	if y, ok, err := t.Float(r, yCol); err == nil && ok {
		p.Y = y
	}
	return p, nil
}

// EncodeChainRows renders chain rows in ChainColumns order.
func EncodeChainRows(rows []model.ChainRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.ID, r.OriginID, r.DestID, r.OriginHolding, r.DestHolding,
			r.OriginCode, r.DestCode, r.Date, r.Colonies,
			r.Origin.X, r.Origin.Y, r.Dest.X, r.Dest.Y,
			r.Origin.Lat, r.Origin.Lon, r.Dest.Lat, r.Dest.Lon, r.AirDistanceKm,
			r.Year(), r.Month(), r.ISOWeek(), r.DayOfYear(),
			r.Consumed, r.Synthesized, r.ChainID, r.BatchYear,
		})
	}
	return out
}

// DecodeChainRows reads a chain sheet written by EncodeChainRows.
func DecodeChainRows(t *Table) ([]model.ChainRow, error) {
	if err := t.Require(ColChainID); err != nil {
		return nil, err
	}
	moves, rep, err := DecodeMovements(t)
	if err != nil {
		return nil, err
	}
	if rep.Dropped > 0 {
		return nil, eris.Errorf("sheet: %d chain rows could not be decoded", rep.Dropped)
	}

	out := make([]model.ChainRow, len(moves))
	for r, m := range moves {
		m.Consumed = true
		m.Synthesized = t.Get(r, ColGenerated) == "1"
		row := model.ChainRow{Movement: m, ChainID: t.Get(r, ColChainID), BatchYear: m.Year()}
		if y, ok, err := t.Int(r, ColBatchYear); err == nil && ok {
			row.BatchYear = y
		}
		out[r] = row
	}
	return out, nil
}
