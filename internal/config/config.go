// Package config loads the optional rpl config file: global defaults plus
// per-command profiles so frequent targets don't need their prompt and
// grammar restated on every invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the file-level structure of config.yaml.
type Config struct {
	HistoryFile string             `yaml:"history_file"`
	Theme       string             `yaml:"theme"`
	ActivityLog string             `yaml:"activity_log"`
	Profiles    map[string]Profile `yaml:"profiles"`
}

// Profile supplies defaults for one target command, keyed by the
// command's basename.
type Profile struct {
	Prompt    string `yaml:"prompt"`
	Regex     bool   `yaml:"regex"`
	Lexer     string `yaml:"lexer"`
	Multiline *bool  `yaml:"multiline"`
}

// Load reads the config from RPL_CONFIG or ~/.config/rpl/config.yaml.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("RPL_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rpl", "config.yaml")
}

// LoadFrom reads the config at path. A missing file yields an empty
// config, not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ProfileFor returns the profile matching the target command's basename,
// or nil. The command may be a full invocation like "psql -h db main".
func (c *Config) ProfileFor(command string) *Profile {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	name := filepath.Base(fields[0])
	if p, ok := c.Profiles[name]; ok {
		return &p
	}
	return nil
}

// DefaultHistoryPath is where history lives when neither flag nor config
// names a file.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rpl-history"
	}
	return filepath.Join(home, ".local", "share", "rpl", "history")
}

// ExpandHome resolves a leading ~/ against the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
