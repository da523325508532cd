// Package exporter writes the presented assessment as downloadable files.
//
// Sections flattens the visible panels of a presenter.View in page order. Values
// are exported exactly as the page shows them, so the export follows the active
// language and the panel capability set.
//
// CSVWriter writes every section as a block of records with a UTF-8 BOM for
// Excel compatibility. XLSXWriter writes one worksheet per section using excelize.
//
// Example usage:
//
//	view := presenter.Present(store.Snapshot(), locales.Active())
//	if err := exporter.NewCSVWriter(logger).WriteAssessment(w, view); err != nil {
//		// exporter.ErrNothingToExport when no panel is visible
//	}
package exporter
