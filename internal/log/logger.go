package log

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	// FormatJSON emits one JSON object per entry.
	FormatJSON = "json"
	// FormatText emits logfmt-style lines, used by the importer CLI on a terminal.
	FormatText = "text"
)

// NewLogger constructs a logrus logger configured with JSON output and the provided log level.
func NewLogger(level string) (*logrus.Logger, error) {
	return NewLoggerWithFormat(level, FormatJSON)
}

// NewLoggerWithFormat constructs a logrus logger with the given level and output format.
func NewLoggerWithFormat(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetReportCaller(false)
	logger.SetLevel(logrus.InfoLevel)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return nil, eris.Errorf("invalid log format: %s", format)
	}

	if level == "" {
		return logger, nil
	}

	parsedLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level: %s", level)
	}

	logger.SetLevel(parsedLevel)
	return logger, nil
}

// WithFields returns a child logger entry with the supplied fields attached.
func WithFields(logger *logrus.Logger, fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}
