// Package logging configures the application logger.
package logging

import (
	"io"
	"os"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// FieldComponent is the log field naming the emitting package.
const FieldComponent = "component"

// New returns a logger writing to w (stderr when nil) at the given level and format.
// Unknown levels fall back to info; any format other than "json" produces text output.
func New(w io.Writer, level, format string) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&nested.Formatter{
			FieldsOrder:     []string{FieldComponent},
			TimestampFormat: "2006-01-02 15:04:05",
			HideKeys:        true,
			NoColors:        true,
		})
	}

	return logger
}

// Component returns an entry tagged with the component field.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField(FieldComponent, name)
}

// Discard returns a logger that drops everything. Used by tests and as a nil-safe default.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
