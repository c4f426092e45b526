// Package logging builds the zerolog logger shared by commands and the server.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level. Unknown or empty
// names fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a console logger writing to w with RFC3339 UTC timestamps.
// Color is disabled when noColor is set, e.g. when w is not a terminal.
func New(w io.Writer, level string, noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
		FormatTimestamp: func(i interface{}) string {
			if s, ok := i.(string); ok {
				if t, err := time.Parse(zerolog.TimeFieldFormat, s); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
				return s
			}
			return ""
		},
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}
