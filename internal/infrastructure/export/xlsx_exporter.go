// Package export renders report tables into spreadsheet files.
package export

import (
	"fmt"
	"strings"

	appreport "github.com/cobranzas/backend/internal/application/report"
	"github.com/xuri/excelize/v2"
)

var _ appreport.SpreadsheetExporter = (*XLSXExporter)(nil)

const (
	maxSheetNameLength = 31
	defaultColumnWidth = 18
)

// XLSXExporter writes one worksheet per table with a bold header row and an
// optional title and footer
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSXExporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export renders tables into an .xlsx workbook
func (e *XLSXExporter) Export(tables ...appreport.Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("at least one table is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	used := make(map[string]bool)
	for i, table := range tables {
		name := sheetName(table.Sheet, i, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeTable(f, name, table, bold, title); err != nil {
			return nil, fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, table appreport.Table, bold, title int) error {
	row := 1
	if table.Title != "" {
		if err := f.SetCellValue(sheet, "A1", table.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", "A1", title); err != nil {
			return err
		}
		row = 3
	}

	if err := setRow(f, sheet, row, toCells(table.Headers), bold); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      row,
		TopLeftCell: cellName(1, row+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for _, cells := range table.Rows {
		row++
		if err := setRow(f, sheet, row, cells, 0); err != nil {
			return err
		}
	}
	if len(table.Footer) > 0 {
		row++
		if err := setRow(f, sheet, row, table.Footer, bold); err != nil {
			return err
		}
	}

	if n := len(table.Headers); n > 0 {
		last, err := excelize.ColumnNumberToName(n)
		if err != nil {
			return err
		}
		return f.SetColWidth(sheet, "A", last, defaultColumnWidth)
	}
	return nil
}

// setRow writes cells starting at column A; style 0 leaves the default style
func setRow(f *excelize.File, sheet string, row int, cells []any, style int) error {
	if len(cells) == 0 {
		return nil
	}
	start := cellName(1, row)
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return err
	}
	if style == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, start, cellName(len(cells), row), style)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// sheetName returns a unique valid worksheet name for the table at index
func sheetName(name string, index int, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if len([]rune(name)) > maxSheetNameLength {
		name = string([]rune(name)[:maxSheetNameLength])
	}
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetNameLength {
			runes = runes[:maxSheetNameLength-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
