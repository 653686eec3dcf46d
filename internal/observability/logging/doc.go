// Package logging wraps log/slog with the application's defaults.
//
// Loggers write JSON to stdout (text to stderr for the CLI), take their level
// from LOG_LEVEL and carry request_id and trace_id when available.
//
//	logger := logging.ForScan(ctx, query)
//	logger.Warn("judge unavailable, using heuristics", slog.Any("error", err))
package logging
