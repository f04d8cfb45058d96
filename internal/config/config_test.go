package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"groundswell/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Server.Addr != ":8080" || cfg.Server.BasePath != "/v0" {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if !cfg.Server.AllowActorHeader {
		t.Fatal("actor header should be allowed by default")
	}
	if cfg.Ledger.FeedLimit != 200 {
		t.Fatalf("feed limit = %d", cfg.Ledger.FeedLimit)
	}
	if !cfg.Engagements.CascadeOnUpdate {
		t.Fatal("cascade on update should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
server:
  addr: ":9090"
ledger:
  feed_limit: 50
engagements:
  cascade_on_update: false
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	// Unset sections keep defaults.
	if cfg.Server.BasePath != "/v0" {
		t.Fatalf("base path = %q", cfg.Server.BasePath)
	}
	if cfg.Ledger.FeedLimit != 50 {
		t.Fatalf("feed limit = %d", cfg.Ledger.FeedLimit)
	}
	if cfg.Engagements.CascadeOnUpdate {
		t.Fatal("cascade should be off per file")
	}
}

func TestFromYAMLRejectsBadValues(t *testing.T) {
	if _, err := config.FromYAML([]byte("ledger:\n  feed_limit: 500\n")); err == nil {
		t.Fatal("expected error for feed_limit above 200")
	}
	if _, err := config.FromYAML([]byte("ledger:\n  feed_limit: -1\n")); err == nil {
		t.Fatal("expected error for negative feed_limit")
	}
	if _, err := config.FromYAML([]byte("not: [valid")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("missing file should yield defaults, got %+v", cfg.Server)
	}

	path := filepath.Join(dir, "groundswell.yml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":7070\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}
