package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"finhealth/internal/presenter"
)

// utf8BOM helps Excel recognize UTF-8, which the Hindi tables need
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes one header row and the records to out
func (w *CSVWriter) WriteCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteAssessment writes every visible panel of v as consecutive CSV blocks.
// Each block starts with its title row, then the column headings if any, and
// blocks are separated by an empty record.
func (w *CSVWriter) WriteAssessment(out io.Writer, v presenter.View) error {
	sections := Sections(v)
	if len(sections) == 0 {
		return ErrNothingToExport
	}

	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	rows := 0
	for i, s := range sections {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if err := writer.Write([]string{s.Title}); err != nil {
			return fmt.Errorf("failed to write section %q: %w", s.Title, err)
		}
		if len(s.Columns) > 0 {
			if err := writer.Write(s.Columns); err != nil {
				return fmt.Errorf("failed to write headers of %q: %w", s.Title, err)
			}
		}
		for _, row := range s.Rows {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write row of %q: %w", s.Title, err)
			}
			rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	w.logger.Info("Assessment exported",
		slog.String("format", "csv"),
		slog.Int("sections", len(sections)),
		slog.Int("rows", rows),
		slog.Uint64("version", v.Version))
	return nil
}
