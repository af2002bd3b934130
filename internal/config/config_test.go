package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Asset.ID != "bitcoin" {
		t.Fatalf("asset.id=%s want bitcoin", cfg.Asset.ID)
	}
	if cfg.Gate.MinInterval != 15*time.Second {
		t.Fatalf("gate.min_interval=%v want 15s", cfg.Gate.MinInterval)
	}
	if cfg.Gate.CacheTTL != 30*time.Second {
		t.Fatalf("gate.cache_ttl=%v want 30s", cfg.Gate.CacheTTL)
	}
	if cfg.Backfill.Window != 6*time.Hour {
		t.Fatalf("backfill.window=%v want 6h", cfg.Backfill.Window)
	}
	if !cfg.Stream.Enabled {
		t.Fatalf("stream.enabled=false want true")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
asset:
  id: ethereum
gate:
  min_interval: 5s
  cache_ttl: 20s
cron:
  enabled: false
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Asset.ID != "ethereum" {
		t.Fatalf("asset.id=%s want ethereum", cfg.Asset.ID)
	}
	if cfg.Gate.MinInterval != 5*time.Second {
		t.Fatalf("gate.min_interval=%v want 5s", cfg.Gate.MinInterval)
	}
	if cfg.Cron.Enabled {
		t.Fatalf("cron.enabled=true want false")
	}
	// Untouched keys keep their defaults.
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("server.http_addr=%s want :8080", cfg.Server.HTTPAddr)
	}
}
