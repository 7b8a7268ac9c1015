package logging_test

import (
	"testing"

	"github.com/gcbaptista/go-collection-search/internal/logging"
)

func TestNewLogger(t *testing.T) {
	logger, err := logging.NewLogger("info")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	logger.Info("hello")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := logging.NewLogger("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewConsole(t *testing.T) {
	logger, err := logging.NewConsole("debug")
	if err != nil {
		t.Fatalf("NewConsole returned error: %v", err)
	}
	logger.Debug("hello")
}
