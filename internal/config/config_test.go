package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE", "SIMILARITY_THRESHOLD", "HISTORY_WINDOW", "MEILI_URL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Store != "postgres" {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.SimilarityThreshold != 90 || cfg.HistoryWindow != 10 {
		t.Errorf("threshold %d window %d", cfg.SimilarityThreshold, cfg.HistoryWindow)
	}
	if cfg.SearchEnabled() {
		t.Error("search enabled without MEILI_URL")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE", "Memory")
	t.Setenv("SIMILARITY_THRESHOLD", "85")
	t.Setenv("HISTORY_WINDOW", "5")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("MEILI_URL", "http://127.0.0.1:7700")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := FromEnv()
	if cfg.Store != "memory" {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.SimilarityThreshold != 85 || cfg.HistoryWindow != 5 {
		t.Errorf("threshold %d window %d", cfg.SimilarityThreshold, cfg.HistoryWindow)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if !cfg.SearchEnabled() {
		t.Error("search disabled with MEILI_URL set")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.DBMaxOpenConns != 10 {
		t.Errorf("bad int should fall back, got %d", cfg.DBMaxOpenConns)
	}
}

func TestExisting(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, ".env")
	if err := os.WriteFile(present, []byte("PORT=9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got := existing(present, filepath.Join(dir, "missing.env"))
	if len(got) != 1 || got[0] != present {
		t.Errorf("existing = %v", got)
	}
}
