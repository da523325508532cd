// Package presenter turns console state into a render-ready view.
//
// Present is a pure function of an operations.State snapshot and one locale
// catalog. It decides which panels are visible, formats every number the way
// the page shows it and resolves the error slot to display text. The HTML page,
// the JSON state API and the CSV/XLSX exports all render the same View, so a
// value reads identically wherever it appears.
//
// Panels are a capability list. FullPanels enables every section; ReducedPanels
// keeps metrics, benchmarks, flags with recommendations, and integrations.
// A panel is shown only when its capability is enabled and its data is present.
//
// Gauge maps a 0-100 risk value to a severity band and a bar width.
package presenter
