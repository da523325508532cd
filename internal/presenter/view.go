package presenter

import (
	"fmt"
	"strings"

	"finhealth/internal/config"
)

// Panel is a capability that lets a section of the page render
type Panel string

const (
	PanelMetrics      Panel = "metrics"
	PanelBenchmarks   Panel = "benchmarks"
	PanelCredit       Panel = "credit"
	PanelForecast     Panel = "forecast"
	PanelScenarios    Panel = "scenarios"
	PanelAnomalies    Panel = "anomalies"
	PanelFlags        Panel = "flags"
	PanelIntegrations Panel = "integrations"
)

// Panels is an ordered set of enabled capabilities
type Panels []Panel

// FullPanels enables every section
func FullPanels() Panels {
	return Panels{
		PanelMetrics,
		PanelBenchmarks,
		PanelCredit,
		PanelForecast,
		PanelScenarios,
		PanelAnomalies,
		PanelFlags,
		PanelIntegrations,
	}
}

// ReducedPanels keeps the sections of the basic assessment
func ReducedPanels() Panels {
	return Panels{PanelMetrics, PanelBenchmarks, PanelFlags, PanelIntegrations}
}

// PanelsByName returns the panel set for a configured name
func PanelsByName(name string) (Panels, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", config.PanelsFull:
		return FullPanels(), nil
	case config.PanelsReduced:
		return ReducedPanels(), nil
	}
	return nil, fmt.Errorf("unknown panel set %q", name)
}

// Has reports whether p is enabled
func (ps Panels) Has(p Panel) bool {
	for _, enabled := range ps {
		if enabled == p {
			return true
		}
	}
	return false
}

// View is everything the page renders. A nil panel is hidden.
type View struct {
	Version  uint64 `json:"version"`
	Language string `json:"language"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`

	Metrics         *MetricsPanel      `json:"metrics,omitempty"`
	Benchmarks      *TablePanel        `json:"benchmarks,omitempty"`
	Credit          *CreditPanel       `json:"credit,omitempty"`
	Forecast        *TablePanel        `json:"forecast,omitempty"`
	Scenarios       *TablePanel        `json:"scenarios,omitempty"`
	Anomalies       *ListPanel         `json:"anomalies,omitempty"`
	Flags           *ListPanel         `json:"flags,omitempty"`
	Recommendations *ListPanel         `json:"recommendations,omitempty"`
	Integrations    *IntegrationsPanel `json:"integrations,omitempty"`
}

// HasResult reports whether any result-backed panel is visible
func (v View) HasResult() bool {
	return v.Metrics != nil || v.Benchmarks != nil || v.Flags != nil
}

// Field is a labelled value
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MetricsPanel is the headline metrics card
type MetricsPanel struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Row is one table row. Key identifies the row independently of its label.
type Row struct {
	Key   string   `json:"key,omitempty"`
	Cells []string `json:"cells"`
}

// TablePanel is a titled table
type TablePanel struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ListPanel is a titled bullet list. Placeholder marks a list holding only the
// "nothing to report" line.
type ListPanel struct {
	Title       string   `json:"title"`
	Items       []string `json:"items"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

// CreditPanel shows the default probability with its gauge and the risk factors
type CreditPanel struct {
	Title        string   `json:"title"`
	Probability  Field    `json:"probability"`
	Gauge        Gauge    `json:"gauge"`
	FactorsTitle string   `json:"factors_title"`
	Factors      []string `json:"factors"`
}

// Document is one pretty-printed banking snapshot
type Document struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// IntegrationsPanel holds the banking snapshots that are present
type IntegrationsPanel struct {
	Title     string     `json:"title"`
	Documents []Document `json:"documents"`
}
