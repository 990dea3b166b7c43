package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/hexcommand/internal/planner"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FRIENDLY", " union, , prussia ")
	t.Setenv("GRAPH_CACHE_SIZE", "nope")
	cfg := Load()
	if cfg.Port != "8011" {
		t.Errorf("Port = %q, want 8011", cfg.Port)
	}
	if len(cfg.Friendly) != 2 || cfg.Friendly[1] != "prussia" {
		t.Errorf("Friendly = %q", cfg.Friendly)
	}
	if cfg.GraphCacheSize != 16 {
		t.Errorf("GraphCacheSize = %d, want 16", cfg.GraphCacheSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRAPH_CACHE_SIZE", "4")
	t.Setenv("SQLITE_PATH", "/tmp/plans.db")
	t.Setenv("DEV", "true")
	cfg := Load()
	if cfg.GraphCacheSize != 4 || cfg.SQLitePath != "/tmp/plans.db" || !cfg.Dev {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadParamsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	data := []byte("influence:\n  enemy_decay: 0.25\nalloc:\n  max_sweeps: 7\nsegment_radius: 3\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	def := planner.DefaultParams()
	if p.Influence.EnemyDecay != 0.25 || p.Alloc.MaxSweeps != 7 || p.SegmentRadius != 3 {
		t.Errorf("overlay not applied: %+v", p)
	}
	if p.Influence.FriendlyDecay != def.Influence.FriendlyDecay || p.Alloc.LossCoef != def.Alloc.LossCoef {
		t.Errorf("unset keys changed: %+v", p)
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	p, err := LoadParams(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if p != planner.DefaultParams() {
		t.Errorf("params = %+v, want defaults", p)
	}
}

func TestLoadParamsRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("allowance_per_turn: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadParams(path); err == nil {
		t.Error("zero allowance accepted")
	}
}
