// Package logging builds the logrus logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Component names used in the "component" field.
const (
	ComponentApp      = "app"
	ComponentSession  = "session"
	ComponentGateway  = "gateway"
	ComponentResource = "resource"
	ComponentHTTP     = "http"
	ComponentCLI      = "cli"
)

// New returns a logger writing to out at the given level. format is "json"
// or "text"; unknown levels fall back to info.
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// For returns an entry tagged with the component name.
func For(logger *logrus.Logger, component string) *logrus.Entry {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField("component", component)
}
