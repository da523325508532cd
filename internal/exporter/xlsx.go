package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"finhealth/internal/presenter"
)

// XLSXWriter exports the assessment as a workbook with one worksheet per panel
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook exporter
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_exporter"))}
}

// WriteAssessment writes every visible panel of v to out as an .xlsx workbook
func (x *XLSXWriter) WriteAssessment(out io.Writer, v presenter.View) error {
	sections := Sections(v)
	if len(sections) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			x.logger.Warn("Failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E7EF"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	used := make(map[string]bool, len(sections))
	for i, s := range sections {
		name := sheetName(s.Title, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, s, headerStyle, wrapStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Info("Assessment exported",
		slog.String("format", "xlsx"),
		slog.Int("sheets", len(sections)),
		slog.Uint64("version", v.Version))
	return nil
}

func writeSheet(f *excelize.File, sheet string, s Section, headerStyle, wrapStyle int) error {
	row := 1
	if len(s.Columns) > 0 {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		columns := s.Columns
		if err := f.SetSheetRow(sheet, cell, &columns); err != nil {
			return fmt.Errorf("failed to write headers of %q: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, row, row, headerStyle); err != nil {
			return fmt.Errorf("failed to style headers of %q: %w", sheet, err)
		}
		row++
	}

	width := len(s.Columns)
	for _, values := range s.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := values
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
		}
		if len(values) > width {
			width = len(values)
		}
		row++
	}

	for col := 1; col <= width; col++ {
		name, _ := excelize.ColumnNumberToName(col)
		cells := columnCells(s, col-1)
		if err := f.SetColWidth(sheet, name, name, columnWidth(cells...)); err != nil {
			return fmt.Errorf("failed to size column %s of %q: %w", name, sheet, err)
		}
	}

	firstRow := 1
	if len(s.Columns) > 0 {
		firstRow = 2
	}
	if row > firstRow && width > 0 {
		first, _ := excelize.CoordinatesToCellName(1, firstRow)
		last, _ := excelize.CoordinatesToCellName(width, row-1)
		if err := f.SetCellStyle(sheet, first, last, wrapStyle); err != nil {
			return fmt.Errorf("failed to style %q: %w", sheet, err)
		}
	}
	return nil
}

func columnCells(s Section, idx int) []string {
	cells := make([]string, 0, len(s.Rows)+1)
	if idx < len(s.Columns) {
		cells = append(cells, s.Columns[idx])
	}
	for _, row := range s.Rows {
		if idx < len(row) {
			cells = append(cells, row[idx])
		}
	}
	return cells
}
