package cfgfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Root != dir {
		t.Errorf("expected default root %q, got %q", dir, cfg.Root)
	}
	if cfg.DebounceInterval != 100*time.Millisecond {
		t.Errorf("expected default debounce 100ms, got %v", cfg.DebounceInterval)
	}
}

func TestLoad_ParsesSettings(t *testing.T) {
	dir := t.TempDir()
	kdl := "root \".\"\nconfig_files \"**/*.uvls.json\"\nexclude \"**/.git/**\" \"**/vendor/**\"\ndebounce_ms 250\nlog_level \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(kdl), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DebounceInterval != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.DebounceInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
	if len(cfg.ConfigFileGlobs) != 1 || cfg.ConfigFileGlobs[0] != "**/*.uvls.json" {
		t.Errorf("expected config_files glob parsed, got %v", cfg.ConfigFileGlobs)
	}
	if len(cfg.Exclude) != 2 {
		t.Errorf("expected 2 exclude patterns, got %v", cfg.Exclude)
	}
}

func TestLoad_BlockFormExclude(t *testing.T) {
	dir := t.TempDir()
	kdl := "exclude {\n  \"**/.git/**\"\n  \"**/node_modules/**\"\n}\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(kdl), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Exclude) != 2 {
		t.Errorf("expected 2 exclude patterns from block form, got %v", cfg.Exclude)
	}
}
