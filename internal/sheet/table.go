package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Table is a sheet's header row plus its data rows.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a Table from raw rows, treating the first row as the header.
func NewTable(rows [][]string) *Table {
	t := &Table{}
	if len(rows) == 0 {
		t.index = map[string]int{}
		return t
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	t.reindex()
	return t
}

// Load reads a named sheet into a Table.
func Load(path, sheetName string) (*Table, error) {
	rows, err := ReadXLSX(path, XLSXOptions{SheetName: sheetName, Raw: true})
	if err != nil {
		return nil, err
	}
	return NewTable(rows), nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := NormalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Col returns the position of a column, matched on its normalised name.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[NormalizeHeader(name)]
	return i, ok
}

// Has reports whether every named column is present.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.Col(n); !ok {
			return false
		}
	}
	return true
}

// Require returns an error naming the first missing column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if _, ok := t.Col(n); !ok {
			return eris.Errorf("sheet: missing column %q", n)
		}
	}
	return nil
}

// Get returns the trimmed cell value at row r, column name. Missing columns
// and short rows read as empty.
func (t *Table) Get(r int, name string) string {
	i, ok := t.Col(name)
	if !ok || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[r][i])
}

// Float parses a numeric cell. Blank cells report ok=false without error.
func (t *Table) Float(r int, name string) (v float64, ok bool, err error) {
	return ParseFloat(t.Get(r, name))
}

// Int parses an integer cell, accepting integral float notation such as "12.0".
func (t *Table) Int(r int, name string) (v int, ok bool, err error) {
	f, ok, err := ParseFloat(t.Get(r, name))
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, true, eris.Errorf("sheet: %q is not an integer", t.Get(r, name))
	}
	return int(f), true, nil
}

// Date parses a date cell.
func (t *Table) Date(r int, name string) (v time.Time, ok bool, err error) {
	return ParseDate(t.Get(r, name))
}

// ParseFloat parses a decimal number; a decimal comma is accepted.
func ParseFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false, eris.Wrapf(err, "sheet: parse number %q", s)
	}
	return f, true, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"2.1.2006",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
}

// ParseDate parses ISO dates, Slovene dd.mm.yyyy dates and Excel serial
// numbers (1900 date system). The time of day is dropped.
func ParseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return truncateDay(d), true, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return truncateDay(xlsx.TimeFromExcelTime(serial, false)), true, nil
	}
	return time.Time{}, false, eris.Errorf("sheet: parse date %q", s)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// NormalizeHeader lowercases a column header, strips diacritics and
// collapses whitespace so "Število  Družin" matches "stevilo druzin".
func NormalizeHeader(h string) string {
	tr := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	out, _, err := transform.String(tr, h)
	if err != nil {
		out = h
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
