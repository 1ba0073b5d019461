// Package app wires the dashboard together and owns its lifecycle.
//
// Initialization order:
//
//	1. Load configuration (YAML file, then DROPOUT_* environment)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Build the pipeline, analysis service, health service and slider hub
//	4. Mount middleware and routes on a chi router
//	5. Start the HTTP server and warm the dataset in the background
//
// Run blocks until SIGINT or SIGTERM, then shuts down the server, closes
// slider sessions and flushes telemetry. Errors are returned to main; the
// package never exits the process itself.
package app
