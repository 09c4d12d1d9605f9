// Package logging provides the structured logging system for the CAS
// dispatch service.
//
// The package is built on Go's standard slog package with a JSON handler.
// Every log entry is one JSON object per line carrying:
//   - timestamp (RFC 3339, nanosecond precision)
//   - level (DEBUG, INFO, WARN, ERROR)
//   - service (constant "cas-service")
//   - subsystem identifier for categorization
//   - msg with optional printf-style formatting
//   - exception when an error is attached
//
// # Usage
//
//	import "casservice/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Service starting on port %d", port)
//	logging.Debug("Dispatcher", "Selected %d engines", n)
//	logging.Error("Engine", err, "maxima probe failed")
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering:
//   - Bootstrap: application initialization and startup
//   - Config: configuration loading and validation
//   - Dispatcher: engine selection and aggregation
//   - Engine: individual engine execution
//   - Executor: subprocess and job lifecycle
//   - HTTP: wire adapter request handling
//
// # Thread Safety
//
// The logging system is fully thread-safe; concurrent logging from engine
// goroutines requires no coordination by callers.
package logging
