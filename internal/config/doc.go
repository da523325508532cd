// Package config loads the console configuration.
//
// Values come from FINHEALTH_* environment variables, optionally merged with a
// YAML file (FINHEALTH_CONFIG_FILE, config.yaml or configs/config.yaml). A value
// explicitly present in the environment always wins over the file.
//
//	FINHEALTH_SERVER_PORT=5173
//	FINHEALTH_SCORING_BASE_URL=https://scoring.example.com
//	FINHEALTH_SCORING_DISCARD_STALE=true
//	FINHEALTH_CONSOLE_PANELS=reduced
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
