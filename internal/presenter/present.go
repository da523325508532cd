package presenter

import (
	"bytes"
	"encoding/json"
	"strings"

	"finhealth/internal/locale"
	"finhealth/internal/operations"
	"finhealth/pkg/contracts/domain"
)

// Bank document names shown in the integrations panel and exports
const (
	DocumentBankA = "bank-a"
	DocumentBankB = "bank-b"
)

// Presenter renders state with a fixed panel set
type Presenter struct {
	panels Panels
}

// New creates a presenter. A nil panel set enables every panel.
func New(panels Panels) *Presenter {
	if panels == nil {
		panels = FullPanels()
	}
	return &Presenter{panels: panels}
}

// Panels returns the enabled panel set
func (p *Presenter) Panels() Panels {
	return p.panels
}

// Present renders state with every panel enabled
func Present(s operations.State, tr locale.Translator) View {
	return New(nil).Present(s, tr)
}

// Present renders state in the language of tr. It does not retain either argument.
func (p *Presenter) Present(s operations.State, tr locale.Translator) View {
	f := newFormatter(tr.Tag())

	v := View{
		Version:  s.Version,
		Language: tr.Language(),
		Loading:  s.Loading,
		Error:    s.Error.Resolve(tr.Lookup),
	}

	if r := s.Result; r != nil {
		if p.panels.Has(PanelMetrics) {
			v.Metrics = metricsPanel(r, tr, f)
		}
		if p.panels.Has(PanelBenchmarks) {
			v.Benchmarks = benchmarksPanel(r, tr)
		}
		if p.panels.Has(PanelCredit) && r.DefaultProbability != nil {
			v.Credit = creditPanel(r, tr)
		}
		if p.panels.Has(PanelForecast) && r.Forecast.Periods() > 0 {
			v.Forecast = forecastPanel(r.Forecast, tr, f)
		}
		if p.panels.Has(PanelScenarios) && r.HasScenarios() {
			v.Scenarios = scenariosPanel(r.Scenarios, tr, f)
		}
		if p.panels.Has(PanelAnomalies) && len(r.Anomalies) > 0 {
			v.Anomalies = &ListPanel{Title: tr.Lookup("anomalies"), Items: copyStrings(r.Anomalies)}
		}
		if p.panels.Has(PanelFlags) {
			v.Flags = flagsPanel(r.Flags, tr)
			v.Recommendations = &ListPanel{Title: tr.Lookup("recommendations"), Items: copyStrings(r.Recommendations)}
		}
	}

	if p.panels.Has(PanelIntegrations) && !s.Integrations.Empty() {
		v.Integrations = integrationsPanel(s.Integrations, tr)
	}

	return v
}

func metricsPanel(r *domain.AnalysisResult, tr locale.Translator, f formatter) *MetricsPanel {
	return &MetricsPanel{
		Title: tr.Lookup("metrics"),
		Fields: []Field{
			{Label: tr.Lookup("revenue"), Value: f.number(r.Revenue)},
			{Label: tr.Lookup("expenses"), Value: f.number(r.Expenses)},
			{Label: tr.Lookup("netMargin"), Value: fraction(r.NetMargin)},
			{Label: tr.Lookup("cashflow"), Value: f.number(r.NetCashflow)},
			{Label: tr.Lookup("currentRatio"), Value: fixed(r.CurrentRatio, 2)},
			{Label: tr.Lookup("dsoDays"), Value: fixed(r.DSODays, 1)},
			{Label: tr.Lookup("credit"), Value: text(r.Creditworthiness)},
			{Label: tr.Lookup("riskScore"), Value: f.number(r.RiskScore)},
		},
	}
}

func benchmarksPanel(r *domain.AnalysisResult, tr locale.Translator) *TablePanel {
	b := r.Benchmarks
	return &TablePanel{
		Title:   tr.Lookup("benchmarking"),
		Columns: []string{tr.Lookup("metric"), tr.Lookup("actual"), tr.Lookup("benchmark")},
		Rows: []Row{
			{Key: "net_margin", Cells: []string{tr.Lookup("netMargin"), fraction(r.NetMargin), fraction(b.NetMargin)}},
			{Key: "current_ratio", Cells: []string{tr.Lookup("currentRatio"), fixed(r.CurrentRatio, 2), shortest(b.CurrentRatio)}},
			{Key: "dso_days", Cells: []string{tr.Lookup("dsoDaysColumn"), fixed(r.DSODays, 1), shortest(b.DSODays)}},
		},
	}
}

func creditPanel(r *domain.AnalysisResult, tr locale.Translator) *CreditPanel {
	return &CreditPanel{
		Title:        tr.Lookup("defaultRisk"),
		Probability:  Field{Label: tr.Lookup("defaultProbability"), Value: percent(r.DefaultProbability)},
		Gauge:        RiskGauge(*r.DefaultProbability),
		FactorsTitle: tr.Lookup("riskFactors"),
		Factors:      copyStrings(r.CreditRiskFactors),
	}
}

// forecastPanel has one row per revenue entry; shorter sequences render "-"
func forecastPanel(fc *domain.Forecast, tr locale.Translator, f formatter) *TablePanel {
	rows := make([]Row, 0, fc.Periods())
	for i, rev := range fc.Revenue {
		rows = append(rows, Row{Cells: []string{
			tr.Sprintf(locale.KeyMonth, i+1),
			f.number(rev),
			f.number(at(fc.Expenses, i)),
			fraction(at(fc.NetMargin, i)),
		}})
	}
	return &TablePanel{
		Title:   tr.Lookup("forecast"),
		Columns: []string{tr.Lookup("period"), tr.Lookup("revenue"), tr.Lookup("expenses"), tr.Lookup("netMargin")},
		Rows:    rows,
	}
}

func scenariosPanel(set domain.ScenarioSet, tr locale.Translator, f formatter) *TablePanel {
	rows := make([]Row, 0, len(set))
	for _, sc := range set {
		rows = append(rows, Row{Key: sc.Key, Cells: []string{
			strings.ToUpper(sc.Key),
			f.number(sc.Revenue),
			f.number(sc.Expenses),
			fraction(sc.NetMargin),
		}})
	}
	return &TablePanel{
		Title:   tr.Lookup("scenarios"),
		Columns: []string{tr.Lookup("scenario"), tr.Lookup("revenue"), tr.Lookup("expenses"), tr.Lookup("netMargin")},
		Rows:    rows,
	}
}

func flagsPanel(flags []string, tr locale.Translator) *ListPanel {
	panel := &ListPanel{Title: tr.Lookup("flags")}
	if len(flags) == 0 {
		panel.Items = []string{tr.Lookup(locale.KeyNoRisks)}
		panel.Placeholder = true
		return panel
	}
	panel.Items = copyStrings(flags)
	return panel
}

func integrationsPanel(snap domain.IntegrationSnapshot, tr locale.Translator) *IntegrationsPanel {
	panel := &IntegrationsPanel{Title: tr.Lookup("integrations")}
	if len(snap.BankA) > 0 {
		panel.Documents = append(panel.Documents, Document{Name: DocumentBankA, Body: prettyJSON(snap.BankA)})
	}
	if len(snap.BankB) > 0 {
		panel.Documents = append(panel.Documents, Document{Name: DocumentBankB, Body: prettyJSON(snap.BankB)})
	}
	return panel
}

// prettyJSON indents a document by two spaces keeping its key order
func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
