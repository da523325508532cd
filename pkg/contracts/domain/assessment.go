package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Industry is the sector label sent with a request so the scoring service can pick benchmarks
type Industry string

const (
	IndustryManufacturing Industry = "Manufacturing"
	IndustryRetail        Industry = "Retail"
	IndustryAgriculture   Industry = "Agriculture"
	IndustryServices      Industry = "Services"
	IndustryLogistics     Industry = "Logistics"
	IndustryECommerce     Industry = "E-commerce"
)

// DefaultIndustry is preselected in the console
const DefaultIndustry = IndustryServices

// Industries lists the supported sectors in display order
func Industries() []Industry {
	return []Industry{
		IndustryManufacturing,
		IndustryRetail,
		IndustryAgriculture,
		IndustryServices,
		IndustryLogistics,
		IndustryECommerce,
	}
}

// Valid reports whether the industry is one of the supported sectors
func (i Industry) Valid() bool {
	for _, known := range Industries() {
		if i == known {
			return true
		}
	}
	return false
}

// RecordRow is one period of financial records submitted as JSON
type RecordRow struct {
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	CashIn    float64 `json:"cash_in"`
	CashOut   float64 `json:"cash_out"`
	AR        float64 `json:"ar"`
	AP        float64 `json:"ap"`
	Inventory float64 `json:"inventory"`
	Debt      float64 `json:"debt"`
}

// SampleRecords returns the built-in sample data set submitted by "Analyze Sample".
// A fresh slice is returned on every call.
func SampleRecords() []RecordRow {
	return []RecordRow{
		{Revenue: 120000, Expenses: 90000, CashIn: 115000, CashOut: 88000, AR: 25000, AP: 18000, Inventory: 12000, Debt: 15000},
		{Revenue: 135000, Expenses: 98000, CashIn: 128000, CashOut: 92000, AR: 27000, AP: 20000, Inventory: 13000, Debt: 16000},
	}
}

// RequestKind distinguishes the two analysis request shapes
type RequestKind string

const (
	RequestKindFile   RequestKind = "file"
	RequestKindSample RequestKind = "sample"
)

// Upload is a statement file picked in the browser
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// AnalysisRequest is built fresh for every user action and discarded after dispatch
type AnalysisRequest struct {
	Kind     RequestKind
	File     *Upload
	Records  []RecordRow
	Industry Industry
	APIKey   string
}

// NewFileRequest builds a file analysis request
func NewFileRequest(file *Upload, industry Industry, apiKey string) AnalysisRequest {
	return AnalysisRequest{Kind: RequestKindFile, File: file, Industry: industry, APIKey: apiKey}
}

// NewSampleRequest builds a JSON records analysis request
func NewSampleRequest(records []RecordRow, industry Industry, apiKey string) AnalysisRequest {
	return AnalysisRequest{Kind: RequestKindSample, Records: records, Industry: industry, APIKey: apiKey}
}

// Benchmarks are the static industry reference values returned with a result
type Benchmarks struct {
	NetMargin    *float64 `json:"net_margin"`
	CurrentRatio *float64 `json:"current_ratio"`
	DSODays      *float64 `json:"dso_days"`
}

// Forecast holds index-aligned projections; index i is the same future period in every sequence
type Forecast struct {
	Revenue   []*float64 `json:"revenue"`
	Expenses  []*float64 `json:"expenses"`
	NetMargin []*float64 `json:"net_margin"`
}

// Periods returns the number of forecast periods
func (f *Forecast) Periods() int {
	if f == nil {
		return 0
	}
	return len(f.Revenue)
}

// Scenario is a named alternative projection
type Scenario struct {
	Revenue   *float64 `json:"revenue"`
	Expenses  *float64 `json:"expenses"`
	NetMargin *float64 `json:"net_margin"`
}

// NamedScenario pairs a scenario with its key
type NamedScenario struct {
	Key string
	Scenario
}

// ScenarioSet is a scenario mapping that keeps the key order sent by the server
type ScenarioSet []NamedScenario

// UnmarshalJSON decodes a JSON object preserving member order
func (s *ScenarioSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("scenarios: expected object, got %v", tok)
	}

	set := ScenarioSet{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("scenarios: expected key, got %v", keyTok)
		}
		var sc Scenario
		if err := dec.Decode(&sc); err != nil {
			return fmt.Errorf("scenarios: %s: %w", key, err)
		}
		set = append(set, NamedScenario{Key: key, Scenario: sc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = set
	return nil
}

// MarshalJSON encodes the set as an object in its stored order
func (s ScenarioSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(sc.Scenario)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnalysisResult is the assessment returned by the scoring service.
// Numeric fields are pointers so a JSON null stays distinguishable from zero.
type AnalysisResult struct {
	Industry         string     `json:"industry,omitempty"`
	Revenue          *float64   `json:"revenue"`
	Expenses         *float64   `json:"expenses"`
	NetIncome        *float64   `json:"net_income,omitempty"`
	NetMargin        *float64   `json:"net_margin"`
	NetCashflow      *float64   `json:"net_cashflow"`
	CurrentRatio     *float64   `json:"current_ratio"`
	DSODays          *float64   `json:"dso_days"`
	DSCR             *float64   `json:"dscr,omitempty"`
	Creditworthiness *string    `json:"creditworthiness"`
	RiskScore        *float64   `json:"risk_score"`
	Benchmarks       Benchmarks `json:"benchmarks"`
	Flags            []string   `json:"flags"`
	Recommendations  []string   `json:"recommendations"`

	DefaultProbability *float64    `json:"default_probability,omitempty"`
	CreditRiskFactors  []string    `json:"credit_risk_factors,omitempty"`
	Forecast           *Forecast   `json:"forecast,omitempty"`
	Scenarios          ScenarioSet `json:"scenarios,omitempty"`
	Anomalies          []string    `json:"anomalies,omitempty"`
}

// HasScenarios reports whether the server sent a scenarios object, empty or not
func (r *AnalysisResult) HasScenarios() bool {
	return r != nil && r.Scenarios != nil
}

// IntegrationSnapshot holds the two third-party banking documents. Both are set or neither is.
type IntegrationSnapshot struct {
	BankA json.RawMessage `json:"bank_a,omitempty"`
	BankB json.RawMessage `json:"bank_b,omitempty"`
}

// Empty reports whether no bank document is held
func (s IntegrationSnapshot) Empty() bool {
	return len(s.BankA) == 0 && len(s.BankB) == 0
}
