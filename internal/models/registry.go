// Package models manages LLM provider configuration, credential resolution,
// and lazy model construction for the conversation engine.
package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/colloquy/internal/config"
)

// ProviderEntry holds a lazily-initialized model instance.
type ProviderEntry struct {
	Config config.ProviderConfig
	model  model.ToolCallingChatModel
	once   sync.Once
	err    error
}

// Registry manages named model providers with lazy initialization.
// Providers are only constructed (and their credentials resolved) the first
// time a conversation actually dispatches to them.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]*ProviderEntry
	defaultName string
	catalog     *Catalog
}

// NewRegistry creates a model registry from config.
func NewRegistry(cfg config.ModelsConfig) *Registry {
	r := &Registry{
		providers:   make(map[string]*ProviderEntry),
		defaultName: cfg.Default,
	}

	names := make([]string, 0, len(cfg.Providers))
	for name, provCfg := range cfg.Providers {
		r.providers[name] = &ProviderEntry{Config: provCfg}
		names = append(names, name)
	}
	r.catalog = NewCatalog(names, cfg.Catalog)

	return r
}

// Get returns the named model, initializing it lazily. The name may be a
// provider name or a catalog display name.
func (r *Registry) Get(ctx context.Context, name string) (model.ToolCallingChatModel, error) {
	resolved, ok := r.catalog.Resolve(name)
	if !ok {
		resolved = name
	}

	r.mu.RLock()
	entry, ok := r.providers[resolved]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("model provider %q not found", name)
	}

	entry.once.Do(func() {
		entry.model, entry.err = CreateModel(ctx, entry.Config)
	})

	return entry.model, entry.err
}

// Resolve maps a display name or provider name to a configured provider name.
func (r *Registry) Resolve(name string) (string, bool) {
	if _, ok := r.providers[name]; ok {
		return name, true
	}
	return r.catalog.Resolve(name)
}

// Default returns the default model.
func (r *Registry) Default(ctx context.Context) (model.ToolCallingChatModel, error) {
	if r.defaultName == "" {
		return nil, fmt.Errorf("no default model configured")
	}
	return r.Get(ctx, r.defaultName)
}

// DefaultName returns the name of the default provider.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// ProviderNames returns configured provider names, sorted.
func (r *Registry) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CatalogNames returns the display names usable in add requests.
func (r *Registry) CatalogNames() []string {
	return r.catalog.Names()
}
