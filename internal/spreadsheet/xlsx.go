// Package spreadsheet renders report rows into an xlsx workbook.
package spreadsheet

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet every report workbook carries.
const SheetName = "Report"

const (
	minColumnWidth = 10
	maxColumnWidth = 80
	widthPadding   = 2
	dateLayout     = "2006-01-02 15:04"
)

// Encode writes a bold, frozen header row followed by one row per input row,
// projecting exactly the requested columns. Columns absent from a row are left
// empty. Column widths follow the longest rendered value.
func Encode(columns []string, rows []map[string]any, headers map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		label := col
		if h, ok := headers[col]; ok && h != "" {
			label = h
		}
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, label); err != nil {
			return nil, fmt.Errorf("write header %s: %w", col, err)
		}
		widths[i] = utf8.RuneCountInString(label)
	}

	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range rows {
		for c, col := range columns {
			value, text, ok := render(row[col])
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write %s row %d: %w", col, r+1, err)
			}
			if n := utf8.RuneCountInString(text); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, clampWidth(w)); err != nil {
			return nil, fmt.Errorf("column width %s: %w", name, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads back the report sheet as rendered strings.
func Decode(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

func render(v any) (any, string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, "", false
	case string:
		return val, val, true
	case int:
		return val, fmt.Sprint(val), true
	case int64:
		return val, fmt.Sprint(val), true
	case float64:
		return val, fmt.Sprint(val), true
	case decimal.Decimal:
		return val.InexactFloat64(), val.StringFixed(2), true
	case time.Time:
		if val.IsZero() {
			return nil, "", false
		}
		s := val.UTC().Format(dateLayout)
		return s, s, true
	case fmt.Stringer:
		s := val.String()
		return s, s, true
	default:
		s := fmt.Sprint(val)
		return s, s, true
	}
}

func clampWidth(chars int) float64 {
	w := chars + widthPadding
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}
