// Package app wires the financial health console together and owns its lifecycle.
// It loads configuration, builds every service and serves the console page, the
// JSON API and the WebSocket push channel from a single HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config.yaml and FINHEALTH_* variables
//	2. Initialize logging and OpenTelemetry (traces plus Prometheus metrics)
//	3. Load the locale tables and select the result panels
//	4. Build the scoring client, the state store and the request orchestrator
//	5. Subscribe the WebSocket hub to committed state
//	6. Set up the router and middleware, then create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build the application with New and an explicit configuration, then drive
// the Router directly or call Start with port 0.
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. Stop drains HTTP requests, waits for dispatched
// scoring calls to commit, detaches the store subscriber, closes every WebSocket
// client and flushes telemetry.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit.
package app
