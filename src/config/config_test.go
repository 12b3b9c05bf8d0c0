package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMPT", "")
	t.Setenv("HOTKEY", "")
	t.Setenv("REPLY_DEADLINE_SEC", "")
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != defaultPrompt {
		t.Errorf("unexpected default prompt %q", cfg.Prompt)
	}
	if cfg.Hotkey != defaultHotkey {
		t.Errorf("unexpected default hotkey %q", cfg.Hotkey)
	}
	if cfg.ReplyDeadlineSec != 60 {
		t.Errorf("unexpected default deadline %d", cfg.ReplyDeadlineSec)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("expected env fallback key, got %q", cfg.APIKey)
	}
}

func TestLoadReadsKeyFromFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file-key \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("file key must win and be trimmed, got %q", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyFile {
		t.Errorf("unexpected key path %q", cfg.APIKeyPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODEL", "qwen/qwen2.5-vl-72b-instruct")
	t.Setenv("BASE_URL", "https://example.test/v1")
	t.Setenv("REPLY_DEADLINE_SEC", "90")
	t.Setenv("ENABLE_FILE_LOGGING", "TRUE")
	t.Setenv("DEFAULT_ASPECT", " 16:9 ")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "qwen/qwen2.5-vl-72b-instruct" {
		t.Errorf("unexpected model %q", cfg.Model)
	}
	if cfg.BaseURL != "https://example.test/v1" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.ReplyDeadlineSec != 90 {
		t.Errorf("unexpected deadline %d", cfg.ReplyDeadlineSec)
	}
	if !cfg.EnableFileLogging {
		t.Error("file logging flag not parsed case-insensitively")
	}
	if cfg.DefaultAspect != "16:9" {
		t.Errorf("aspect not trimmed, got %q", cfg.DefaultAspect)
	}
}

func TestLoadIgnoresBadDeadline(t *testing.T) {
	t.Setenv("REPLY_DEADLINE_SEC", "not-a-number")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReplyDeadlineSec != 60 {
		t.Errorf("bad value must fall back to default, got %d", cfg.ReplyDeadlineSec)
	}
}
