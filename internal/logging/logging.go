// Package logging builds the application's leveled logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name; components derive children with Named.
const Name = "ytsheets"

// Levels lists the accepted severities from least to most verbose.
var Levels = []string{"ERROR", "WARN", "INFO", "DEBUG"}

// ParseLevel maps one of Levels (case-insensitive) to an hclog level.
// Unknown or empty values fall back to INFO.
func ParseLevel(s string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return hclog.Error
	case "WARN", "WARNING":
		return hclog.Warn
	case "DEBUG":
		return hclog.Debug
	default:
		return hclog.Info
	}
}

// ValidLevel reports whether s names one of Levels.
func ValidLevel(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Levels {
		if s == l {
			return true
		}
	}
	return false
}

// New returns a logger writing to out (stderr when nil) at the given level.
func New(level string, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Level:      ParseLevel(level),
		Output:     out,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// OrNull returns l, or a discarding logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
