package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "copilotmd", FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Markdown.Title != "GitHub Copilot Chat Log" {
		t.Errorf("Markdown.Title = %q", cfg.Markdown.Title)
	}
	if cfg.Markdown.ParticipantHeading != "Participant" {
		t.Errorf("Markdown.ParticipantHeading = %q", cfg.Markdown.ParticipantHeading)
	}
	if !cfg.Redact.Enabled || !cfg.Redact.Secrets || !cfg.Redact.PII {
		t.Errorf("Redact = %+v, want all enabled", cfg.Redact)
	}
	if cfg.Compact.Enabled {
		t.Error("Compact.Enabled should default to false")
	}
	if cfg.Serve.Port != 8484 {
		t.Errorf("Serve.Port = %d", cfg.Serve.Port)
	}
	if cfg.Format != "markdown" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.MaxFileSize != 0 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
}

func TestLoad_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if strings.HasPrefix(cfg.Archive.Dir, "~/") {
		t.Errorf("Archive.Dir not expanded: %q", cfg.Archive.Dir)
	}
	if !strings.HasSuffix(cfg.Archive.Dir, filepath.Join("copilotmd", "archive")) {
		t.Errorf("Archive.Dir = %q", cfg.Archive.Dir)
	}
}

func TestLoad_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	writeConfig(t, xdg, `
storage_dir = "~/vscode/storage"
max_file_size = 1048576

[markdown]
title = "Pairing log"

[redact]
pii = false
allowlist = ["example\\.com"]

[[redact.rules]]
name = "ticket"
pattern = "ACME-\\d+"

[compact]
enabled = true
strip_edits = true

[serve]
port = 9000
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !strings.HasSuffix(cfg.StorageDir, filepath.Join("vscode", "storage")) || strings.HasPrefix(cfg.StorageDir, "~") {
		t.Errorf("StorageDir = %q", cfg.StorageDir)
	}
	if cfg.MaxFileSize != 1<<20 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.Markdown.Title != "Pairing log" {
		t.Errorf("Markdown.Title = %q", cfg.Markdown.Title)
	}
	// Unset keys keep their defaults.
	if cfg.Markdown.ParticipantHeading != "Participant" {
		t.Errorf("Markdown.ParticipantHeading = %q", cfg.Markdown.ParticipantHeading)
	}
	if !cfg.Redact.Secrets || cfg.Redact.PII {
		t.Errorf("Redact = %+v", cfg.Redact)
	}
	if len(cfg.Redact.Rules) != 1 || cfg.Redact.Rules[0].Name != "ticket" {
		t.Errorf("Redact.Rules = %+v", cfg.Redact.Rules)
	}
	if !cfg.Compact.Enabled || !cfg.Compact.StripEdits {
		t.Errorf("Compact = %+v", cfg.Compact)
	}
	if cfg.Serve.Port != 9000 {
		t.Errorf("Serve.Port = %d", cfg.Serve.Port)
	}

	m := cfg.MarkdownRenderer()
	if m.Title != "Pairing log" || m.ParticipantHeading != "Participant" {
		t.Errorf("MarkdownRenderer = %+v", m)
	}

	rc, err := cfg.RedactorConfig()
	if err != nil {
		t.Fatalf("RedactorConfig: %v", err)
	}
	if len(rc.ExtraRules) != 1 || rc.ExtraRules[0].Name() != "ticket" {
		t.Errorf("ExtraRules = %v", rc.ExtraRules)
	}
	if rc.PII {
		t.Error("PII should be disabled")
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, t.TempDir(), "[serve]\nport = 7000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serve.Port != 7000 {
		t.Errorf("Serve.Port = %d", cfg.Serve.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	path := writeConfig(t, t.TempDir(), "port = [")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestRedactorConfigBadPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redact.Rules = []RuleConfig{{Name: "bad", Pattern: "("}}
	if _, err := cfg.RedactorConfig(); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	if got := Dir(); got != filepath.Join(xdg, "copilotmd") {
		t.Errorf("Dir = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~/a/b", filepath.Join(home, "a", "b")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
