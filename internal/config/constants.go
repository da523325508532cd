package config

import (
	"time"

	"finhealth/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "Financial Health Console"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable read by Load
	EnvPrefix = "FINHEALTH"

	// Scoring service defaults
	DefaultDevBaseURL   = "http://localhost:8000"
	DefaultAPIKeyHeader = "X-API-Key"
	DefaultAPIKey       = "dev-key"

	// Scoring service paths, relative to the resolved base endpoint
	AnalyzeFilePath    = "/analyze"
	AnalyzeRecordsPath = "/analyze-json"
	BankAPath          = "/integrations/bank-a"
	BankBPath          = "/integrations/bank-b"

	// Console languages
	LanguageEnglish = "en"
	LanguageHindi   = "hi"

	// Panel capability sets
	PanelsFull    = "full"
	PanelsReduced = "reduced"

	// Network Timeouts
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogsDir   = "logs"

	// Endpoints
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
