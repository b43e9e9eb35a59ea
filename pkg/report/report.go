// Package report exports a defect summary workbook for a sample: one row
// per defect with its coordinates and the filename every configured channel
// produces. Operators use it as a manifest of what a split will generate.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/thi-mey/SEMapp/pkg/naming"
	"github.com/thi-mey/SEMapp/pkg/types"
)

const sheetName = "Sheet1"

// Export writes the summary for one sample to path as an .xlsx workbook.
func Export(path, sample string, records []types.DefectRecord, channels []types.Channel) error {
	if len(records) == 0 {
		return fmt.Errorf("no defect records to export")
	}
	if len(channels) == 0 {
		return fmt.Errorf("no channels configured")
	}

	f := excelize.NewFile()
	defer f.Close()

	numCols := 3 + len(channels)
	endCol, err := excelize.ColumnNumberToName(numCols)
	if err != nil {
		return fmt.Errorf("failed to compute column name: %w", err)
	}

	// Title row, merged across all columns.
	title := fmt.Sprintf("Wafer %s — %d defects", sample, len(records))
	if err := f.MergeCell(sheetName, "A1", endCol+"1"); err != nil {
		return fmt.Errorf("failed to merge title cells: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Font:      &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", endCol+"1", titleStyle); err != nil {
		return fmt.Errorf("failed to style title: %w", err)
	}
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}

	centered, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	headers := []string{"#", "X (µm)", "Y (µm)"}
	for _, ch := range channels {
		headers = append(headers, ch.Detector)
	}

	widths := make([]float64, numCols)
	for col, text := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		if err := f.SetCellValue(sheetName, cell, text); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, centered)
		widths[col] = approxTextWidth(text)
	}

	for i, rec := range records {
		row := i + 3
		values := []interface{}{rec.Index, naming.FormatCoord(rec.X), naming.FormatCoord(rec.Y)}
		for _, ch := range channels {
			values = append(values, naming.Filename(ch, rec))
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			_ = f.SetCellStyle(sheetName, cell, cell, centered)
			if w := approxTextWidth(fmt.Sprint(v)); w > widths[col] {
				widths[col] = w
			}
		}
	}

	for col, w := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(sheetName, name, name, w)
	}

	now := time.Now().Format(time.RFC3339)
	_ = f.SetDocProps(&excelize.DocProperties{
		Created:     now,
		Modified:    now,
		Creator:     "SEMapp",
		Description: "Defect summary",
	})

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// approxTextWidth estimates the display width of a cell value, counting
// non-ASCII runes double and adding padding.
func approxTextWidth(text string) float64 {
	width := 0.0
	for _, r := range text {
		if r <= 127 {
			width += 1.0
		} else {
			width += 2.0
		}
	}
	return width + 3.0
}
