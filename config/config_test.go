package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, ok, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing file")
	}
	if config.Http.Port != 8501 || config.ML.ModelPath != "iwakRf.json" || config.ML.EncoderPath != "label_encoder.json" {
		t.Fatalf("unexpected defaults: %+v", config)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  port: 9000
  timeout: 5s
log:
  level: debug
ml:
  model_type: decision_tree
  model_path: models/tree.json
  encoder_path: /srv/label_encoder.json
  watch: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, ok, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if config.Http.Port != 9000 || config.Http.Timeout != 5*time.Second {
		t.Fatalf("unexpected http config: %+v", config.Http)
	}
	if config.Http.MaxBodyBytes != 1<<16 {
		t.Fatalf("expected default body limit, got %d", config.Http.MaxBodyBytes)
	}
	if config.Log.Level != "debug" || config.Log.Format != "console" {
		t.Fatalf("unexpected log config: %+v", config.Log)
	}
	if config.ML.ModelPath != filepath.Join(dir, "models/tree.json") {
		t.Fatalf("relative model path not resolved: %s", config.ML.ModelPath)
	}
	if config.ML.EncoderPath != "/srv/label_encoder.json" {
		t.Fatalf("absolute encoder path changed: %s", config.ML.EncoderPath)
	}
	if !config.ML.Watch || config.ML.CacheSize <= 0 {
		t.Fatalf("unexpected ml config: %+v", config.ML)
	}
	store := config.StoreConfig()
	if store.ModelType != "decision_tree" || store.ModelPath != config.ML.ModelPath {
		t.Fatalf("unexpected store config: %+v", store)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "http: [",
		"bad port":   "http:\n  port: -1\n",
		"bad model":  "ml:\n  model_type: xgboost\n",
		"empty path": "ml:\n  encoder_path: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.yaml")

	if got := Locate(missing, existing); got != existing {
		t.Fatalf("expected %s, got %s", existing, got)
	}
	if got := Locate(missing); got != missing {
		t.Fatalf("expected first candidate when none exist, got %s", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	config, ok, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || config.ML.ModelType != "random_forest" {
		t.Fatalf("expected defaults from empty file, got ok=%v %+v", ok, config.ML)
	}
}
