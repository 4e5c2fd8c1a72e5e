package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sh, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sh.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var movementHeader = []string{
	"uuid", "GMID_origin", "GMID_dest", "KMG_MID_origin", "KMG_MID_dest",
	"TYPE_origin", "TYPE", "DATE_MOVE", "FAMILY_MOVE",
	"X_origin", "Y_origin", "X_COORDINATE", "Y_COORDINATE",
	"origin_lat", "origin_long", "dest_lat", "dest_long", "air_distance",
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"First":  {{"a", "b"}},
		"Second": {{"x", "y"}, {"1", "2"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestReadXLSX_Errors(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, "not found")

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.ErrorContains(t, err, "out of range")

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}

func TestReadXLSX_SkipRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"title"}, {"h1", "h2"}, {"a", "b"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"h1", "h2"}, rows[0])
}

func TestStreamXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"h"}, {"1"}, {"2"}},
	})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SkipRows: 1})
	var got []string
	for row := range rowCh {
		got = append(got, row[0])
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestSheetNames(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"only": {{"a"}}})

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FAMILY_MOVE", "family_move"},
		{"  Število   Družin ", "stevilo druzin"},
		{"fuel consumption [L / km]", "fuel consumption [l / km]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in))
	}
}

func TestTable_Accessors(t *testing.T) {
	tb := NewTable([][]string{
		{"Name", "Count", "Price", "Date"},
		{" hive ", "12", "1,45", "2020-03-04"},
		{"short"},
	})

	assert.Equal(t, 2, tb.Len())
	assert.True(t, tb.Has("name", "COUNT"))
	assert.False(t, tb.Has("missing"))
	assert.ErrorContains(t, tb.Require("Name", "missing"), "missing")
	assert.Equal(t, "hive", tb.Get(0, "name"))
	assert.Empty(t, tb.Get(1, "Count"))

	n, ok, err := tb.Int(0, "Count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	p, ok, err := tb.Float(0, "Price")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1.45, p, 1e-9)

	_, ok, err = tb.Float(1, "Price")
	require.NoError(t, err)
	assert.False(t, ok)

	d, ok, err := tb.Date(0, "Date")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC), d)
}

func TestTable_IntRejectsFraction(t *testing.T) {
	tb := NewTable([][]string{{"n"}, {"12.5"}, {"12.0"}})

	_, _, err := tb.Int(0, "n")
	assert.Error(t, err)

	n, ok, err := tb.Int(1, "n")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, n)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2020-01-01", "2020-01-01 13:45:00", "01.01.2020", "43831"} {
		got, ok, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok, err := ParseDate("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseDate("soon")
	assert.Error(t, err)
}

func TestNewTable_Empty(t *testing.T) {
	tb := NewTable(nil)
	assert.Zero(t, tb.Len())
	assert.False(t, tb.Has("x"))
}

func movementRow(id, from, to, fromType, toType, date, colonies string) []string {
	return []string{
		id, from, to, "K1", "K2", fromType, toType, date, colonies,
		"460000", "100000", "463000", "104000",
		"46.0", "14.5", "46.1", "14.6", "",
	}
}

func TestDecodeMovements(t *testing.T) {
	tb := NewTable([][]string{
		movementHeader,
		movementRow("m1", "A", "B", "CBS", "CBZ", "2020-04-01", "10"),
		movementRow("", "B", "C", "CBZ", "CBP", "2020-05-01", "10"),
		movementRow("bad", "A", "B", "XXX", "CBZ", "2020-04-01", "10"),
		movementRow("nodate", "A", "B", "CBS", "CBZ", "", "10"),
		append(movementRow("nocoord", "A", "B", "CBS", "CBZ", "2020-04-01", "10")[:13], "", "", "", "", ""),
	})

	moves, rep, err := DecodeMovements(tb)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 3, rep.Dropped)
	assert.Equal(t, 1, rep.GeneratedIDs)
	assert.Equal(t, 2, rep.MissingAirDist)

	m := moves[0]
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, model.Permanent, m.OriginKind)
	assert.Equal(t, model.Temporary, m.DestKind)
	assert.Equal(t, "CBS", m.OriginCode)
	assert.Equal(t, 10, m.Colonies)
	assert.InDelta(t, 460000, m.Origin.X, 1e-9)
	assert.InDelta(t, 14.6, m.Dest.Lon, 1e-9)
	assert.NotEmpty(t, moves[1].ID)
	assert.Equal(t, model.Permanent, moves[1].DestKind)
}

func TestDecodeMovements_MissingColumn(t *testing.T) {
	_, _, err := DecodeMovements(NewTable([][]string{{"uuid", "GMID_origin"}}))
	assert.ErrorContains(t, err, "missing column")
}

func TestChainRows_WorkbookRoundTrip(t *testing.T) {
	rows := []model.ChainRow{
		{ChainID: "c1", BatchYear: 2020, Movement: model.Movement{
			ID: "m1", OriginID: "A", DestID: "B", OriginHolding: "K1", DestHolding: "K1",
			OriginKind: model.Permanent, DestKind: model.Temporary,
			OriginCode: "CBS", DestCode: "CBZ",
			Date: time.Date(2020, 12, 20, 0, 0, 0, 0, time.UTC), Colonies: 12,
			Origin: model.Point{X: 1, Y: 2, Lat: 46, Lon: 14},
			Dest:   model.Point{X: 3, Y: 4, Lat: 46.5, Lon: 14.5},
			AirDistanceKm: 4.2, Consumed: true,
		}},
		{ChainID: "c1", BatchYear: 2020, Movement: model.Movement{
			ID: "gen", OriginID: "B", DestID: "A", DestHolding: "K1",
			OriginKind: model.Temporary, DestKind: model.Permanent,
			OriginCode: "CBZ", DestCode: "CBS",
			Date: time.Date(2021, 1, 19, 0, 0, 0, 0, time.UTC), Colonies: 12,
			Origin: model.Point{X: 3, Y: 4, Lat: 46.5, Lon: 14.5},
			Dest:   model.Point{X: 1, Y: 2, Lat: 46, Lon: 14},
			AirDistanceKm: 4.2, Consumed: true, Synthesized: true,
		}},
	}

	wb := NewWorkbook()
	require.NoError(t, wb.AddSheet("CBZ back migrations appended_0", ChainColumns, EncodeChainRows(rows)))
	path := filepath.Join(t.TempDir(), "out", "chains.xlsx")
	require.NoError(t, wb.Save(path))

	tb, err := Load(path, "CBZ back migrations appended_0")
	require.NoError(t, err)
	assert.Equal(t, "3", tb.Get(1, ColWeek))

	got, err := DecodeChainRows(tb)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].ID, got[0].ID)
	assert.Equal(t, "c1", got[1].ChainID)
	assert.True(t, got[1].Synthesized)
	assert.False(t, got[0].Synthesized)
	assert.Equal(t, 2020, got[1].BatchYear)
	assert.Equal(t, rows[1].Date, got[1].Date)
	assert.InDelta(t, 4.2, got[0].AirDistanceKm, 1e-9)
}

func TestWorkbook_AddSheet(t *testing.T) {
	wb := NewWorkbook()
	err := wb.AddSheet("this sheet name is far too long for excel", nil, nil)
	assert.Error(t, err)

	require.NoError(t, wb.AddSheet("values", []string{"a", "b", "c", "d"}, [][]any{
		{decimal.RequireFromString("1.25"), nil, true, 7},
	}))
	path := filepath.Join(t.TempDir(), "v.xlsx")
	require.NoError(t, wb.Save(path))

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "values", SkipRows: 1, Raw: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1.25", rows[0][0])
	assert.Equal(t, "1", rows[0][2])
	assert.Equal(t, "7", rows[0][3])
}

func TestRoutedRows_WorkbookRoundTrip(t *testing.T) {
	base := model.ChainRow{ChainID: "c9", BatchYear: 2019, Movement: model.Movement{
		ID: "m1", OriginID: "A", DestID: "B", OriginKind: model.Permanent, DestKind: model.Temporary,
		OriginCode: "CBP", DestCode: "CBZ", Date: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), Colonies: 30,
		Origin: model.Point{Lat: 46, Lon: 14}, Dest: model.Point{Lat: 46.3, Lon: 14.2},
	}}
	unrouted := base
	unrouted.ID = "m2"
	rows := []model.RoutedRow{
		{ChainRow: base, Travel: &model.Travel{DistanceKm: 41.5, TimeMin: 38, MotorwayKm: 20.25, Path: "LINESTRING (14 46, 14.2 46.3)"}},
		{ChainRow: unrouted},
	}

	wb := NewWorkbook()
	require.NoError(t, wb.AddSheet("migrations distances_5 cutoff", RoutedColumns, EncodeRoutedRows(rows)))
	path := filepath.Join(t.TempDir(), "routed.xlsx")
	require.NoError(t, wb.Save(path))

	tb, err := Load(path, "migrations distances_5 cutoff")
	require.NoError(t, err)
	got, err := DecodeRoutedRows(tb)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.True(t, got[0].Routed())
	assert.InDelta(t, 41.5, got[0].Travel.DistanceKm, 1e-9)
	assert.InDelta(t, 20.25, got[0].Travel.MotorwayKm, 1e-9)
	assert.Equal(t, "LINESTRING (14 46, 14.2 46.3)", got[0].Travel.Path)
	assert.InDelta(t, 20.25/41.5, got[0].MotorwayShare(), 1e-9)
	assert.False(t, got[1].Routed())
	assert.Zero(t, got[1].MotorwayShare())
	assert.Equal(t, "c9", got[1].ChainID)
}
