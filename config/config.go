// Package config loads copilotmd settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sonnes/copilotmd/redact"
	"github.com/sonnes/copilotmd/render/markdown"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config holds all copilotmd configuration.
type Config struct {
	// StorageDir overrides the VS Code workspace storage directory.
	StorageDir string `toml:"storage_dir"`
	// MaxFileSize caps the size of a chat session in bytes; zero keeps the default.
	MaxFileSize int64 `toml:"max_file_size"`
	// Format is the default output format of convert.
	Format string `toml:"format"`

	Markdown MarkdownConfig `toml:"markdown"`
	Redact   RedactConfig   `toml:"redact"`
	Compact  CompactConfig  `toml:"compact"`
	Archive  ArchiveConfig  `toml:"archive"`
	Serve    ServeConfig    `toml:"serve"`
}

type MarkdownConfig struct {
	Title              string `toml:"title"`
	ParticipantHeading string `toml:"participant_heading"`
}

type RedactConfig struct {
	Enabled   bool         `toml:"enabled"`
	Secrets   bool         `toml:"secrets"`
	PII       bool         `toml:"pii"`
	Allowlist []string     `toml:"allowlist"`
	Rules     []RuleConfig `toml:"rules"`
}

// RuleConfig is an extra redaction pattern.
type RuleConfig struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

type CompactConfig struct {
	Enabled    bool `toml:"enabled"`
	StripEdits bool `toml:"strip_edits"`
}

type ArchiveConfig struct {
	// Dir receives compressed copies of converted sessions.
	Dir string `toml:"dir"`
}

type ServeConfig struct {
	Port int `toml:"port"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Format: "markdown",
		Markdown: MarkdownConfig{
			Title:              markdown.DefaultTitle,
			ParticipantHeading: markdown.DefaultParticipantHeading,
		},
		Redact: RedactConfig{
			Enabled: true,
			Secrets: true,
			PII:     true,
		},
		Archive: ArchiveConfig{
			Dir: "~/.local/share/copilotmd/archive",
		},
		Serve: ServeConfig{
			Port: 8484,
		},
	}
}

// Load reads config from path, or from the standard locations when path is
// empty, falling back to defaults when no file exists.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				if _, err := toml.DecodeFile(p, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config %s: %w", p, err)
				}
				break
			}
		}
	}

	cfg.StorageDir = expandHome(cfg.StorageDir)
	cfg.Archive.Dir = expandHome(cfg.Archive.Dir)

	return cfg, nil
}

// Dir returns the copilotmd config directory.
// Uses $XDG_CONFIG_HOME/copilotmd if set, otherwise ~/.config/copilotmd.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "copilotmd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "copilotmd")
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "copilotmd", FileName))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "copilotmd", FileName))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// MarkdownRenderer returns a Markdown renderer using the configured headings.
func (c Config) MarkdownRenderer() *markdown.Renderer {
	m := markdown.New()
	if c.Markdown.Title != "" {
		m.Title = c.Markdown.Title
	}
	if c.Markdown.ParticipantHeading != "" {
		m.ParticipantHeading = c.Markdown.ParticipantHeading
	}
	return m
}

// RedactorConfig converts the redaction settings into a redact.Config.
func (c Config) RedactorConfig() (redact.Config, error) {
	rc := redact.Config{
		Secrets:   c.Redact.Secrets,
		PII:       c.Redact.PII,
		Allowlist: c.Redact.Allowlist,
	}
	for _, r := range c.Redact.Rules {
		rule, err := redact.NewRegexRule(r.Name, "custom", r.Pattern)
		if err != nil {
			return redact.Config{}, err
		}
		rc.ExtraRules = append(rc.ExtraRules, rule)
	}
	return rc, nil
}
