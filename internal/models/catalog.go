package models

import (
	"sort"
	"strings"
)

// builtinCatalog maps human-readable model names (the ones participants use in
// !add_ai) to provider names. Config catalog entries are merged over these.
var builtinCatalog = map[string]string{
	"Claude Opus 4.5":   "claude-opus-4.5",
	"Claude Sonnet 4.5": "claude-sonnet-4.5",
	"Claude Haiku 4.5":  "claude-haiku-4.5",
	"Claude 3 Opus":     "claude-3-opus",
	"Gemini 3 Pro":      "gemini-3-pro",
	"Gemini 2.5 Pro":    "gemini-2.5-pro",
	"Gemini 2.5 Flash":  "gemini-2.5-flash",
	"GPT 5.1":           "gpt-5.1",
	"GPT 5":             "gpt-5",
	"GPT 4o":            "gpt-4o",
	"Grok 4":            "grok-4",
	"DeepSeek R1":       "deepseek-r1",
	"Kimi K2":           "kimi-k2",
	"Qwen 3 Max":        "qwen-3-max",
}

// Catalog resolves display names to configured provider names.
type Catalog struct {
	aliases   map[string]string // display name -> provider name
	providers map[string]bool   // configured provider names
}

// NewCatalog builds a catalog from the configured provider names and
// user-supplied alias overrides.
func NewCatalog(providerNames []string, overrides map[string]string) *Catalog {
	c := &Catalog{
		aliases:   make(map[string]string, len(builtinCatalog)+len(overrides)),
		providers: make(map[string]bool, len(providerNames)),
	}
	for name, target := range builtinCatalog {
		c.aliases[name] = target
	}
	for name, target := range overrides {
		c.aliases[name] = target
	}
	for _, name := range providerNames {
		c.providers[name] = true
	}
	return c
}

// Resolve maps a display name (or provider name) to a configured provider.
// Returns false if nothing configured matches.
func (c *Catalog) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	// Exact provider name
	if c.providers[name] {
		return name, true
	}

	// Alias lookup, then case-insensitive alias lookup
	if target, ok := c.aliases[name]; ok && c.providers[target] {
		return target, true
	}
	for alias, target := range c.aliases {
		if strings.EqualFold(alias, name) && c.providers[target] {
			return target, true
		}
	}

	// Normalized form: "Claude Sonnet 4.5" -> "claude-sonnet-4.5"
	normalized := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	if c.providers[normalized] {
		return normalized, true
	}

	return "", false
}

// Names returns the display names that resolve to a configured provider,
// sorted for stable output.
func (c *Catalog) Names() []string {
	seen := make(map[string]bool)
	var names []string

	for alias, target := range c.aliases {
		if c.providers[target] && !seen[alias] {
			seen[alias] = true
			names = append(names, alias)
		}
	}
	for name := range c.providers {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names
}
