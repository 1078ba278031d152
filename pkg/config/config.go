// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Jan Hofmeier

// Package config loads winc-spi settings from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"sigs.k8s.io/yaml"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Config holds the settings shared by all commands. Command-line flags
// override these values.
type Config struct {
	Verbose     bool          `json:"verbose"`
	ErrorsOnly  bool          `json:"errors_only"`
	Format      string        `json:"format"`
	LogLevel    string        `json:"log_level"`
	StorePath   string        `json:"store_path"`
	Listen      string        `json:"listen"`
	Baud        int           `json:"baud"`
	IdleTimeout time.Duration `json:"idle_timeout"`
}

// tomlConfig mirrors Config with the duration as a string.
type tomlConfig struct {
	Verbose     bool   `toml:"verbose"`
	ErrorsOnly  bool   `toml:"errors_only"`
	Format      string `toml:"format"`
	LogLevel    string `toml:"log_level"`
	StorePath   string `toml:"store_path"`
	Listen      string `toml:"listen"`
	Baud        int    `toml:"baud"`
	IdleTimeout string `toml:"idle_timeout"`
}

// yamlConfig mirrors Config with the duration as a string.
type yamlConfig struct {
	Verbose     *bool   `json:"verbose"`
	ErrorsOnly  *bool   `json:"errors_only"`
	Format      *string `json:"format"`
	LogLevel    *string `json:"log_level"`
	StorePath   *string `json:"store_path"`
	Listen      *string `json:"listen"`
	Baud        *int    `json:"baud"`
	IdleTimeout *string `json:"idle_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format:      FormatText,
		LogLevel:    "warn",
		StorePath:   defaultStorePath(),
		Listen:      "127.0.0.1:8080",
		Baud:        115200,
		IdleTimeout: 2 * time.Second,
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "winc-spi")
}

func defaultStorePath() string {
	return filepath.Join(configDir(), "history.db")
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// Load reads path over the defaults. Files ending in .toml are TOML,
// everything else is YAML. An empty path loads DefaultPath, which may be
// missing.
func Load(path string) (Config, error) {
	optional := false
	if path == "" {
		path = DefaultPath()
		optional = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = parseTOML(data)
	} else {
		cfg, err = parseYAML(data)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func parseTOML(data []byte) (Config, error) {
	cfg := Default()

	var raw tomlConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, err
	}

	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("errors_only") {
		cfg.ErrorsOnly = raw.ErrorsOnly
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("store_path") {
		cfg.StorePath = strings.TrimSpace(raw.StorePath)
	}
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	return cfg, nil
}

func parseYAML(data []byte) (Config, error) {
	cfg := Default()

	var raw yamlConfig
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return Config{}, err
	}

	if raw.Verbose != nil {
		cfg.Verbose = *raw.Verbose
	}
	if raw.ErrorsOnly != nil {
		cfg.ErrorsOnly = *raw.ErrorsOnly
	}
	if raw.Format != nil {
		cfg.Format = strings.TrimSpace(*raw.Format)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.TrimSpace(*raw.LogLevel)
	}
	if raw.StorePath != nil {
		cfg.StorePath = strings.TrimSpace(*raw.StorePath)
	}
	if raw.Listen != nil {
		cfg.Listen = strings.TrimSpace(*raw.Listen)
	}
	if raw.Baud != nil {
		cfg.Baud = *raw.Baud
	}
	if raw.IdleTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.IdleTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return fmt.Errorf("unsupported format %q (expected text, json or cbor)", c.Format)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Baud)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout)
	}
	return nil
}
