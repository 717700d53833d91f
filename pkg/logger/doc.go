// Package logger provides structured logging for mymovies.
//
// It wraps zerolog behind a small Logger interface with field support,
// coloured console output (or JSON lines), optional file output and a
// global instance used by the command layer.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("mode", cfg.Scrape.Mode).Info("Run started")
//	logger.WithError(err).Error("Login failed")
//
// Library packages take a Logger explicitly; tests pass NewNopLogger or a
// TestLogger to inspect what was logged.
package logger
