// Package logger provides the component-tagged structured logger used by
// the service and the CLI.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger tags every entry with the component that produced it.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

// LevelFromEnv reads LOG_LEVEL, falling back to debug when DEBUG=1 and
// info otherwise.
func LevelFromEnv() zerolog.Level {
	if level, err := ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		return level
	}
	if os.Getenv("DEBUG") == "1" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
