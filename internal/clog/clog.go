// Package clog wraps zap construction the way a small compiler binary
// would: a production logger normally, a development logger (colored,
// caller-annotated) under a debug flag, so diagnostics carry
// structured fields instead of bare fmt.Fprintf(os.Stderr, ...)
// prints.
package clog

import "go.uber.org/zap"

// New builds a logger for driver.Options.Debug. Callers should defer
// Sync() on the returned logger.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Phase returns a child logger scoped to one compilation phase for one
// file, carrying both as structured fields so a driver run's log can be
// filtered per file or per pass without parsing a formatted string.
func Phase(log *zap.Logger, file, phase string) *zap.Logger {
	return log.With(zap.String("file", file), zap.String("phase", phase))
}
