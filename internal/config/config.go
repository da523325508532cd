package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Scoring   ScoringConfig   `yaml:"scoring" envconfig:"SCORING"`
	Console   ConsoleConfig   `yaml:"console" envconfig:"CONSOLE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"5173" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"20971520" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/console.log"`
}

// ScoringConfig describes how the remote scoring service is reached
type ScoringConfig struct {
	// BaseURL is the explicit endpoint override; it wins over every other resolution step
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	// DevBaseURL is used when the console page is served from a loopback host
	DevBaseURL     string        `yaml:"dev_base_url" envconfig:"DEV_BASE_URL" default:"http://localhost:8000" validate:"required,url"`
	APIKeyHeader   string        `yaml:"api_key_header" envconfig:"API_KEY_HEADER" default:"X-API-Key" validate:"required"`
	DefaultAPIKey  string        `yaml:"default_api_key" envconfig:"DEFAULT_API_KEY" default:"dev-key"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"0s" validate:"gte=0"`
	DiscardStale   bool          `yaml:"discard_stale" envconfig:"DISCARD_STALE" default:"false"`
}

// ConsoleConfig contains presentation defaults
type ConsoleConfig struct {
	DefaultLanguage string `yaml:"default_language" envconfig:"DEFAULT_LANGUAGE" default:"en" validate:"required"`
	DefaultIndustry string `yaml:"default_industry" envconfig:"DEFAULT_INDUSTRY" default:"Services" validate:"oneof=Manufacturing Retail Agriculture Services Logistics E-commerce"`
	Panels          string `yaml:"panels" envconfig:"PANELS" default:"full" validate:"oneof=full reduced"`
	OpenBrowser     bool   `yaml:"open_browser" envconfig:"OPEN_BROWSER" default:"false"`
}

// TelemetryConfig contains OpenTelemetry exporter selection
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. A value explicitly set in the
// environment wins; otherwise a value present in the file replaces the env default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("SERVER_READ_TIMEOUT") {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("SERVER_WRITE_TIMEOUT") {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !envSet("LOGGING_OUTPUT") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" && !envSet("LOGGING_FILE_PATH") {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Scoring.BaseURL != "" && !envSet("SCORING_BASE_URL") {
		envConfig.Scoring.BaseURL = fileConfig.Scoring.BaseURL
	}
	if fileConfig.Scoring.DevBaseURL != "" && !envSet("SCORING_DEV_BASE_URL") {
		envConfig.Scoring.DevBaseURL = fileConfig.Scoring.DevBaseURL
	}
	if fileConfig.Scoring.APIKeyHeader != "" && !envSet("SCORING_API_KEY_HEADER") {
		envConfig.Scoring.APIKeyHeader = fileConfig.Scoring.APIKeyHeader
	}
	if fileConfig.Scoring.DefaultAPIKey != "" && !envSet("SCORING_DEFAULT_API_KEY") {
		envConfig.Scoring.DefaultAPIKey = fileConfig.Scoring.DefaultAPIKey
	}
	if fileConfig.Scoring.DiscardStale && !envSet("SCORING_DISCARD_STALE") {
		envConfig.Scoring.DiscardStale = true
	}
	if fileConfig.Console.DefaultLanguage != "" && !envSet("CONSOLE_DEFAULT_LANGUAGE") {
		envConfig.Console.DefaultLanguage = fileConfig.Console.DefaultLanguage
	}
	if fileConfig.Console.DefaultIndustry != "" && !envSet("CONSOLE_DEFAULT_INDUSTRY") {
		envConfig.Console.DefaultIndustry = fileConfig.Console.DefaultIndustry
	}
	if fileConfig.Console.Panels != "" && !envSet("CONSOLE_PANELS") {
		envConfig.Console.Panels = fileConfig.Console.Panels
	}
	if fileConfig.Console.OpenBrowser && !envSet("CONSOLE_OPEN_BROWSER") {
		envConfig.Console.OpenBrowser = true
	}
	if fileConfig.Telemetry.TraceExporter != "" && !envSet("TELEMETRY_TRACE_EXPORTER") {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}
	if fileConfig.Telemetry.MetricExporter != "" && !envSet("TELEMETRY_METRIC_EXPORTER") {
		envConfig.Telemetry.MetricExporter = fileConfig.Telemetry.MetricExporter
	}

	return envConfig
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// normalize trims values that are compared or concatenated later
func (c *Config) normalize() {
	c.Scoring.BaseURL = strings.TrimRight(strings.TrimSpace(c.Scoring.BaseURL), "/")
	c.Scoring.DevBaseURL = strings.TrimRight(strings.TrimSpace(c.Scoring.DevBaseURL), "/")
	c.Console.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Console.DefaultLanguage))

	// JSON is the only supported log format
	c.Logging.Format = "json"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5173,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			MaxUploadBytes:  20 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/console.log",
		},
		Scoring: ScoringConfig{
			DevBaseURL:    DefaultDevBaseURL,
			APIKeyHeader:  DefaultAPIKeyHeader,
			DefaultAPIKey: DefaultAPIKey,
		},
		Console: ConsoleConfig{
			DefaultLanguage: "en",
			DefaultIndustry: "Services",
			Panels:          "full",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
