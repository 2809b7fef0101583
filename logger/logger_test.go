package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nijaru/yt-ask/config"
	"github.com/sirupsen/logrus"
)

func TestNewStdout(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer.Close()

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "chatty"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := New(config.LogConfig{
		Level:      "info",
		Dir:        dir,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.WithField("video_id", "abc").Info("Transcript fetched")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "Transcript fetched") {
		t.Errorf("log file missing entry: %s", data)
	}
}
