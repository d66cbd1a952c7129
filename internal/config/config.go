// Package config loads server configuration from an optional
// depscope.yaml, with environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the workspace root when no explicit
// config path is given.
const DefaultFileName = "depscope.yaml"

// LSP configures the optional external language server.
type LSP struct {
	Enabled bool     `yaml:"enabled"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Crawl bounds the indexing pass.
type Crawl struct {
	Workers     int   `yaml:"workers"`
	MaxFileSize int64 `yaml:"max_file_size"`
}

// Watch configures filesystem change polling.
type Watch struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval_seconds"`
}

// Config is the full server configuration.
type Config struct {
	Workspace string   `yaml:"workspace"`
	Ignore    []string `yaml:"ignore"`
	LSP       LSP      `yaml:"lsp"`
	Crawl     Crawl    `yaml:"crawl"`
	Watch     Watch    `yaml:"watch"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Workspace: ".",
		Crawl:     Crawl{Workers: 8, MaxFileSize: 1 << 20},
		Watch:     Watch{Enabled: true, Interval: 2},
	}
}

// Load reads configuration from path. An empty path tries
// depscope.yaml in the current directory; a missing file yields the
// defaults. Environment variables override file values:
// DEPSCOPE_WORKSPACE, DEPSCOPE_LSP_COMMAND, DEPSCOPE_CRAWL_WORKERS.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// optional file absent; defaults stand
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)

	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	abs, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	cfg.Workspace = abs

	if cfg.Crawl.Workers <= 0 {
		cfg.Crawl.Workers = 8
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DEPSCOPE_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("DEPSCOPE_LSP_COMMAND"); v != "" {
		parts := strings.Fields(v)
		cfg.LSP.Enabled = true
		cfg.LSP.Command = parts[0]
		cfg.LSP.Args = parts[1:]
	}
	if v := os.Getenv("DEPSCOPE_CRAWL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Crawl.Workers = n
		}
	}
}
