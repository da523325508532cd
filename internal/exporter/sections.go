package exporter

import (
	"errors"

	"finhealth/internal/presenter"
)

// ErrNothingToExport is returned when the view has no visible panel to export
var ErrNothingToExport = errors.New("no assessment to export")

// Section is one exported block: a title, optional column headings and rows.
// Every value is already formatted and localized by the presenter.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Sections flattens the visible panels of v in page order
func Sections(v presenter.View) []Section {
	var out []Section

	if m := v.Metrics; m != nil {
		s := Section{Title: m.Title}
		for _, f := range m.Fields {
			s.Rows = append(s.Rows, []string{f.Label, f.Value})
		}
		out = append(out, s)
	}

	if t := v.Benchmarks; t != nil {
		out = append(out, tableSection(t))
	}

	if c := v.Credit; c != nil {
		out = append(out, Section{
			Title: c.Title,
			Rows:  [][]string{{c.Probability.Label, c.Probability.Value}},
		})
		if len(c.Factors) > 0 {
			out = append(out, listSection(c.FactorsTitle, c.Factors))
		}
	}

	if t := v.Forecast; t != nil {
		out = append(out, tableSection(t))
	}
	if t := v.Scenarios; t != nil {
		out = append(out, tableSection(t))
	}
	if l := v.Anomalies; l != nil {
		out = append(out, listSection(l.Title, l.Items))
	}
	if l := v.Flags; l != nil {
		out = append(out, listSection(l.Title, l.Items))
	}
	if l := v.Recommendations; l != nil && len(l.Items) > 0 {
		out = append(out, listSection(l.Title, l.Items))
	}

	if p := v.Integrations; p != nil {
		s := Section{Title: p.Title}
		for _, doc := range p.Documents {
			s.Rows = append(s.Rows, []string{doc.Name, doc.Body})
		}
		out = append(out, s)
	}

	return out
}

func tableSection(t *presenter.TablePanel) Section {
	s := Section{Title: t.Title, Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		s.Rows = append(s.Rows, append([]string(nil), row.Cells...))
	}
	return s
}

func listSection(title string, items []string) Section {
	s := Section{Title: title}
	for _, item := range items {
		s.Rows = append(s.Rows, []string{item})
	}
	return s
}
