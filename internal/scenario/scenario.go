// Package scenario loads conversation scenario files: the cast of AI
// participants, their personas and models, and the opening prompt.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/colloquy/internal/config"
)

// MaxSlots is the maximum number of participants a scenario may declare.
const MaxSlots = 5

// Slot declares one AI participant in a scenario.
type Slot struct {
	Persona string `yaml:"persona"`
	Model   string `yaml:"model,omitempty"` // catalog name or provider name; empty = default
}

// Scenario describes a conversation setup.
type Scenario struct {
	Name    string `yaml:"name"`
	System  string `yaml:"system,omitempty"` // shared system prompt prefix
	Slots   []Slot `yaml:"participants"`
	Opening string `yaml:"opening,omitempty"` // first user message seeding the conversation

	// Per-scenario overrides of the conversation defaults. Nil/zero fields
	// fall back to the global config.
	TurnDelay      *config.Duration `yaml:"turn_delay,omitempty"`
	MaxTurns       *int             `yaml:"max_turns,omitempty"`
	WindowSize     *int             `yaml:"window_size,omitempty"`
	KeepReasoning  *bool            `yaml:"keep_reasoning,omitempty"`
	ShareReasoning *bool            `yaml:"share_reasoning,omitempty"`
}

// Validate checks structural constraints.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Slots) == 0 {
		return fmt.Errorf("scenario %q declares no participants", s.Name)
	}
	if len(s.Slots) > MaxSlots {
		return fmt.Errorf("scenario %q declares %d participants, max is %d", s.Name, len(s.Slots), MaxSlots)
	}
	for i, slot := range s.Slots {
		if strings.TrimSpace(slot.Persona) == "" {
			return fmt.Errorf("scenario %q: participant %d has an empty persona", s.Name, i+1)
		}
	}
	return nil
}

// Apply overlays the scenario overrides onto the conversation defaults.
func (s *Scenario) Apply(base config.ConversationConfig) config.ConversationConfig {
	out := base
	if s.TurnDelay != nil {
		out.TurnDelay = *s.TurnDelay
	}
	if s.MaxTurns != nil {
		out.MaxTurns = *s.MaxTurns
	}
	if s.WindowSize != nil {
		out.WindowSize = *s.WindowSize
	}
	if s.KeepReasoning != nil {
		out.KeepReasoning = s.KeepReasoning
	}
	if s.ShareReasoning != nil {
		out.ShareReasoning = *s.ShareReasoning
	}
	return out
}

// Load reads and validates a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadByName resolves a scenario by name from the scenario library directory.
// Tries <dir>/<name>.yaml, then <dir>/<name>.yml.
func LoadByName(dir, name string) (*Scenario, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, fmt.Errorf("scenario %q not found in %s", name, dir)
}

// List returns the scenario names available in the library directory.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	return names, nil
}

// Default returns the built-in two-participant scenario used when no
// scenario file is given.
func Default() *Scenario {
	return &Scenario{
		Name:   "default",
		System: "You are in a group conversation with other AI participants. Keep replies conversational.",
		Slots: []Slot{
			{Persona: "A curious, open-minded conversationalist who asks probing questions."},
			{Persona: "A thoughtful skeptic who enjoys testing ideas against evidence."},
		},
		Opening: "Introduce yourselves and pick a topic you both find interesting.",
	}
}
