package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsAndSeedsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxProjects != 3 {
		t.Fatalf("max_projects = %d, want 3", cfg.MaxProjects)
	}
	if cfg.AutoInit.MinFiles != 3 {
		t.Fatalf("auto_init.min_files = %d, want 3", cfg.AutoInit.MinFiles)
	}

	seeded := filepath.Join(home, ".ctxd", "config.yaml")
	if _, err := os.Stat(seeded); err != nil {
		t.Fatalf("expected seeded config file at %s: %v", seeded, err)
	}
}

func TestLoadExplicitPathOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("max_projects: 7\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxProjects != 7 {
		t.Fatalf("max_projects = %d, want 7", cfg.MaxProjects)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q, want debug", cfg.LogLevel)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); !os.IsNotExist(err) {
		t.Fatalf("explicit path must not trigger seeding a default config.yaml")
	}
}

func TestEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CTXD_MAX_PROJECTS", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxProjects != 9 {
		t.Fatalf("max_projects = %d, want 9 from env override", cfg.MaxProjects)
	}
}
