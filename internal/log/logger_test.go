package log

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}

	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", logger.GetLevel())
	}

	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewLoggerWithTextFormat(t *testing.T) {
	t.Parallel()

	logger, err := NewLoggerWithFormat("DEBUG", FormatText)
	if err != nil {
		t.Fatalf("NewLoggerWithFormat returned error: %v", err)
	}

	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter, got %T", logger.Formatter)
	}
}

func TestNewLoggerRejectsUnknownValues(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger("loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}

	if _, err := NewLoggerWithFormat("info", "xml"); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	hub, flush, err := InitSentry(logrus.New(), SentrySettings{})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	if hub != nil {
		t.Fatalf("expected nil hub without DSN")
	}
	flush()
}
