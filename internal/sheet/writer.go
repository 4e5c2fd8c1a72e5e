package sheet

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// Workbook accumulates sheets and saves them as one .xlsx file.
type Workbook struct {
	f *xlsx.File
}

// NewWorkbook returns an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{f: xlsx.NewFile()}
}

// AddSheet appends a sheet with a header row and data rows. Cells may be
// string, int, int64, float64, bool, time.Time, decimal.Decimal,
// decimal.NullDecimal, fmt.Stringer or nil (blank). NaN and infinite floats are written blank.
func (w *Workbook) AddSheet(name string, header []string, rows [][]any) error {
	if len(name) > maxSheetName {
		return eris.Errorf("xlsx: sheet name %q longer than %d characters", name, maxSheetName)
	}
	sh, err := w.f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %q", name)
	}

	hr := sh.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, values := range rows {
		r := sh.AddRow()
		for _, v := range values {
			setCell(r.AddCell(), v)
		}
	}
	return nil
}

// Sheet is a named block of rows ready to be written.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// AddSheets appends each sheet in order.
func (w *Workbook) AddSheets(sheets ...Sheet) error {
	for _, s := range sheets {
		if err := w.AddSheet(s.Name, s.Header, s.Rows); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the workbook, creating parent directories as needed.
func (w *Workbook) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "xlsx: create directory %s", dir)
		}
	}
	if err := w.f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func setCell(c *xlsx.Cell, v any) {
	switch x := v.(type) {
	case nil:
		c.SetString("")
	case string:
		c.SetString(x)
	case int:
		c.SetInt(x)
	case int64:
		c.SetInt64(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			c.SetString("")
			return
		}
		c.SetFloat(x)
	case bool:
		if x {
			c.SetInt(1)
		} else {
			c.SetInt(0)
		}
	case time.Time:
		c.SetString(x.Format("2006-01-02"))
	case decimal.Decimal:
		f, _ := x.Float64()
		c.SetFloat(f)
	case decimal.NullDecimal:
		if !x.Valid {
			c.SetString("")
			return
		}
		f, _ := x.Decimal.Float64()
		c.SetFloat(f)
	case *decimal.Decimal:
		if x == nil {
			c.SetString("")
			return
		}
		f, _ := x.Float64()
		c.SetFloat(f)
	case fmt.Stringer:
		c.SetString(x.String())
	default:
		c.SetString(fmt.Sprint(x))
	}
}
