package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
aggregator:
  types: ["keyed"]
  period: "5m"
  num_workers: 4
  size_of_event_channel: 1024
  keyed:
    tasks:
      - name: "word_count"
        num_shards: 64
    writers:
      - type: "gob"
        enabled: true
        snapshot_interval: "30s"
        gob:
          root_path: "data/snapshots"
ingest:
  nats_url: "nats://localhost:4222"
  subject: "keyfold.events"
api:
  listen_addr: ":8080"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Aggregator.Period != "5m" {
		t.Errorf("Expected period '5m', got '%s'", cfg.Aggregator.Period)
	}
	if len(cfg.Aggregator.Keyed.Tasks) != 1 || cfg.Aggregator.Keyed.Tasks[0].NumShards != 64 {
		t.Errorf("Unexpected tasks: %+v", cfg.Aggregator.Keyed.Tasks)
	}
	if len(cfg.Aggregator.Keyed.Writers) != 1 || cfg.Aggregator.Keyed.Writers[0].Gob.RootPath != "data/snapshots" {
		t.Errorf("Unexpected writers: %+v", cfg.Aggregator.Keyed.Writers)
	}
	if cfg.Ingest.Subject != "keyfold.events" {
		t.Errorf("Expected subject 'keyfold.events', got '%s'", cfg.Ingest.Subject)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
}
