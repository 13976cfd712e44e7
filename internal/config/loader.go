package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/marcozac/go-jsonc"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before stripping, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	var cfg Config
	if err := jsonc.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied and no providers.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18520
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Conversation.TurnDelay == 0 {
		cfg.Conversation.TurnDelay = Duration(2 * time.Second)
	}
	if cfg.Conversation.TurnTimeout == 0 {
		cfg.Conversation.TurnTimeout = Duration(3 * time.Minute)
	}
	if cfg.Conversation.WindowSize == 0 {
		cfg.Conversation.WindowSize = 40
	}
	if cfg.Conversation.CancelPolicy == "" {
		cfg.Conversation.CancelPolicy = "retry-once-then-skip"
	}
	if cfg.Media.ImageModel == "" {
		cfg.Media.ImageModel = "imagen-3.0-generate-002"
	}
	if cfg.Media.VideoModel == "" {
		cfg.Media.VideoModel = "veo-2.0-generate-001"
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = filepath.Join(ColloquyPath(), "media")
	}
	if cfg.Media.MaxAge == 0 {
		cfg.Media.MaxAge = Duration(24 * time.Hour)
	}
}
