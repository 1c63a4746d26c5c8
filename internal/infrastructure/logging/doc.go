// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The kernel's own diagnostics (exception reports, unrecognized system
// calls, panics) go to the serial console as plain text; the same events
// are mirrored here with structured fields.
//
// Example Usage:
//
//	logger := logging.FromLevel("debug", true)
//	logger.Info("Module registered", zap.String("module", "FileScheme"))
//	logger.Warn("Request dropped", zap.String("url", "gopher://x"))
package logging
