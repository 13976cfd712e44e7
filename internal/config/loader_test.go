package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	content := `{
		// model providers
		"models": {
			"default": "claude",
			"providers": {
				"claude": {
					"driver": "anthropic",
					"model": "claude-sonnet-4-6",
					"auth": { "api_key": "${{ .Env.TEST_COLLOQUY_KEY }}" }
				}
			}
		},
		"conversation": {
			"turn_delay": "5s",
			"max_turns": 20
		}
	}`

	os.Setenv("TEST_COLLOQUY_KEY", "sk-test-123")
	defer os.Unsetenv("TEST_COLLOQUY_KEY")

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %q", cfg.Models.Default)
	}
	if got := cfg.Models.Providers["claude"].Auth.APIKey; got != "sk-test-123" {
		t.Errorf("env template not expanded, got %q", got)
	}
	if cfg.Conversation.TurnDelay.Duration() != 5*time.Second {
		t.Errorf("expected 5s turn delay, got %v", cfg.Conversation.TurnDelay.Duration())
	}
	if cfg.Conversation.MaxTurns != 20 {
		t.Errorf("expected 20 max turns, got %d", cfg.Conversation.MaxTurns)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Conversation.TurnDelay.Duration() != 2*time.Second {
		t.Errorf("expected default 2s turn delay, got %v", cfg.Conversation.TurnDelay.Duration())
	}
	if cfg.Conversation.WindowSize != 40 {
		t.Errorf("expected default window 40, got %d", cfg.Conversation.WindowSize)
	}
	if !cfg.Conversation.KeepReasoningEnabled() {
		t.Error("keep_reasoning should default to true")
	}
	if cfg.Conversation.ShareReasoning {
		t.Error("share_reasoning should default to false")
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Conversation.CancelPolicy != "retry-once-then-skip" {
		t.Errorf("unexpected cancel policy %q", cfg.Conversation.CancelPolicy)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Fatal("expected error for missing config")
	}
}
