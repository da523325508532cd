package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "finhealth/internal/errors"
	"finhealth/internal/exporter"
	"finhealth/internal/presenter"
)

// Export content types
const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler downloads the rendered assessment
type ExportHandler struct {
	console *Console
	csv     *exporter.CSVWriter
	xlsx    *exporter.XLSXWriter
	errors  *apierrors.ErrorHandler
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(console *Console, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		console: console,
		csv:     exporter.NewCSVWriter(logger),
		xlsx:    exporter.NewXLSXWriter(logger),
		errors:  errHandler,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// Routes returns the export routes, mounted under /api/export
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/assessment.csv", h.CSV)
	r.Get("/assessment.xlsx", h.XLSX)
	return r
}

// CSV handles GET /api/export/assessment.csv
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", contentTypeCSV, h.csv.WriteAssessment)
}

// XLSX handles GET /api/export/assessment.xlsx
func (h *ExportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", contentTypeXLSX, h.xlsx.WriteAssessment)
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, format, contentType string, write func(io.Writer, presenter.View) error) {
	view := h.console.View()

	var buf bytes.Buffer
	if err := write(&buf, view); err != nil {
		mapped := mapDomainError(err)
		if mapped == err {
			mapped = apierrors.ExportError(format, err)
		}
		h.errors.HandleError(w, r, mapped)
		return
	}

	size := buf.Len()
	filename := fmt.Sprintf("assessment-v%d-%s.%s", view.Version, view.Language, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)

	h.logger.InfoContext(r.Context(), "Assessment downloaded",
		slog.String("format", format),
		slog.Int("bytes", size),
		slog.Uint64("version", view.Version))
}
