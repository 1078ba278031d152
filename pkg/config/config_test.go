// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ============================================================
// Loading
// ============================================================

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
verbose: true
format: json
baud: 9600
idle_timeout: 500ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Verbose {
		t.Error("Verbose not set")
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Baud != 9600 {
		t.Errorf("Baud = %d, want 9600", cfg.Baud)
	}
	if cfg.IdleTimeout != 500*time.Millisecond {
		t.Errorf("IdleTimeout = %s, want 500ms", cfg.IdleTimeout)
	}
	// Unset keys keep defaults
	if cfg.Listen != Default().Listen {
		t.Errorf("Listen = %q, want default", cfg.Listen)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
errors_only = true
log_level = "debug"
listen = ":9000"
idle_timeout = "3s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.ErrorsOnly {
		t.Error("ErrorsOnly not set")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q, want :9000", cfg.Listen)
	}
	if cfg.IdleTimeout != 3*time.Second {
		t.Errorf("IdleTimeout = %s, want 3s", cfg.IdleTimeout)
	}
	if cfg.Format != FormatText {
		t.Errorf("Format = %q, want default text", cfg.Format)
	}
}

func TestLoad_MissingDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Format != FormatText || cfg.Baud != 115200 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad format", "c.yaml", "format: xml\n"},
		{"bad baud", "c.yaml", "baud: 0\n"},
		{"bad duration", "c.yaml", "idle_timeout: soon\n"},
		{"unknown key", "c.yaml", "colour: blue\n"},
		{"bad toml", "c.toml", "format = \n"},
		{"negative timeout", "c.toml", "idle_timeout = \"-1s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}
