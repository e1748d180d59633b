package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tablero.db")
	if cfg.Database.Path != "/tmp/tablero.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Timeline.DayWidth != 40 || cfg.Timeline.PadBefore != 2 || cfg.Timeline.PadAfter != 5 {
		t.Fatalf("unexpected timeline defaults %+v", cfg.Timeline)
	}
	if cfg.Timeline.EmptyHorizon != 30 {
		t.Fatalf("unexpected empty horizon %d", cfg.Timeline.EmptyHorizon)
	}
	if cfg.Board.AuthorName != "tablero-user" {
		t.Fatalf("unexpected author %q", cfg.Board.AuthorName)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tablero.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tablero.db"

[board]
author_name = "contadora"

[timeline]
day_width = 24
pad_before = 1
pad_after = 3
empty_horizon = 14

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/tablero.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Board.AuthorName != "contadora" {
		t.Fatalf("unexpected author %q", cfg.Board.AuthorName)
	}
	if cfg.Timeline.DayWidth != 24 || cfg.Timeline.EmptyHorizon != 14 {
		t.Fatalf("unexpected timeline %+v", cfg.Timeline)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tablero.db"

[timeline]
day_width = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path, Default("/tmp/default.db")); err == nil {
		t.Fatal("expected error for day_width = 0")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default("/tmp/tablero.db")
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
