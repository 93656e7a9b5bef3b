package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Export"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes a bold, filterable header row followed by the data rows.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, h := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(xlsxSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err := f.SetCellStyle(xlsxSheet, "A1", lastHeader, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for r, row := range data.Rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellStr(xlsxSheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r, err)
			}
		}
	}

	lastCell, _ := excelize.CoordinatesToCellName(len(data.Headers), len(data.Rows)+1)
	if err := f.AutoFilter(xlsxSheet, "A1:"+lastCell, nil); err != nil {
		return nil, fmt.Errorf("autofilter: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	_ = f.SetColWidth(xlsxSheet, "A", lastCol, 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
