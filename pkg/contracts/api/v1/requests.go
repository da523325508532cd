// Package api contains the request and response contracts of the console's HTTP surface.
// Version v1 represents the current stable API version.
package api

// Action requests. Each is accepted both as a form post from the console page
// and as JSON from /api/actions.

// AnalyzeRequest carries the form fields that accompany a statement upload.
// The file itself travels as the multipart part named "file".
type AnalyzeRequest struct {
	Industry string `json:"industry" form:"industry" validate:"omitempty,industry"`
	APIKey   string `json:"api_key" form:"api_key" validate:"max=256"`
}

// AnalyzeSampleRequest asks for the built-in sample records to be analyzed
type AnalyzeSampleRequest struct {
	Industry string `json:"industry" form:"industry" validate:"omitempty,industry"`
	APIKey   string `json:"api_key" form:"api_key" validate:"max=256"`
}

// IntegrationsRequest asks for both banking snapshots to be reloaded
type IntegrationsRequest struct {
	APIKey string `json:"api_key" form:"api_key" validate:"max=256"`
}

// LanguageRequest switches the console language
type LanguageRequest struct {
	Code string `json:"code" param:"code" validate:"required,language"`
}

// ClientLogRequest is a browser-side log entry
type ClientLogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2048"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty" validate:"max=256"`
}

// Responses

// AcceptedResponse acknowledges a dispatched action
type AcceptedResponse struct {
	Status  string `json:"status"`
	Action  string `json:"action"`
	Version uint64 `json:"version"`
	Skipped bool   `json:"skipped,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// PhasesResponse reports the lifecycle phase of each operation kind
type PhasesResponse struct {
	Analyze      string `json:"analyze"`
	Integrations string `json:"integrations"`
}

// StateResponse is the console state as served by GET /api/state
type StateResponse struct {
	Version   uint64         `json:"version"`
	Language  string         `json:"language"`
	Languages []string       `json:"languages"`
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`
	Phases    PhasesResponse `json:"phases"`
	View      interface{}    `json:"view"`
}

// LanguageResponse reports the active language after a switch
type LanguageResponse struct {
	Language  string   `json:"language"`
	Languages []string `json:"languages"`
}
