package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iwak.log")
	config := DefaultConfig()
	config.Format = "json"
	config.File = path

	logger, err := New(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("artifacts loaded")
	_ = logger.Sync()

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(payload), `"msg":"artifacts loaded"`) {
		t.Fatalf("unexpected log output: %s", payload)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}
