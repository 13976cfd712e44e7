package models

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/secrets"
)

// AuthKind distinguishes between API key and Bearer token auth.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
	AuthBearerToken
)

// ResolvedAuth holds the resolved credentials and their kind.
type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// ResolveAuth resolves the credentials for a provider.
// Resolution order: direct token → direct api_key → env var → driver default env.
// Values of the form ${VAR} are read from the environment; ENC[age:...] blobs
// are decrypted with the local age key.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	token := resolveValue(cfg.Auth.Token)
	if token != "" {
		return ResolvedAuth{Kind: AuthBearerToken, Value: token}, nil
	}

	key := resolveValue(cfg.Auth.APIKey)
	if key != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
	}

	// Default env vars per driver
	switch strings.ToLower(cfg.Driver) {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
		}
		return ResolvedAuth{}, fmt.Errorf("ANTHROPIC_API_KEY not set")
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
		}
		return ResolvedAuth{}, fmt.Errorf("OPENAI_API_KEY not set")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
		}
		return ResolvedAuth{}, fmt.Errorf("GEMINI_API_KEY not set")
	default:
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
}

// resolveValue expands ${VAR} references and decrypts ENC[age:...] blobs.
func resolveValue(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		return os.Getenv(trimmed[2 : len(trimmed)-1])
	}

	if secrets.IsEncrypted(trimmed) {
		identity, err := secrets.LoadIdentity(secrets.KeyPath())
		if err != nil {
			slog.Error("load age identity for encrypted credential", "error", err)
			return ""
		}
		plain, err := secrets.Decrypt(trimmed, identity)
		if err != nil {
			slog.Error("decrypt credential", "error", err)
			return ""
		}
		return plain
	}

	return trimmed
}
