// Package telemetry is a thin structured-logging wrapper around zerolog,
// grounded on itohio-EasyRobot's pkg/logger (pkg/logger/logger.go): a
// package-level Logger built once with Caller() attached and a
// console-friendly writer, so call sites never construct their own
// zerolog.Logger.
package telemetry

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the shared root logger; the localizer and costmap packages log
// through component-tagged children of it (see WithComponent).
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Caller().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// WithComponent returns a child logger tagging every entry with component,
// e.g. telemetry.WithComponent("localizer").
func WithComponent(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}
