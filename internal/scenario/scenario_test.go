package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dohr-michael/colloquy/internal/config"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "debate.yaml", `
name: debate
system: "You are debating."
participants:
  - persona: "Argues for."
    model: "Claude Sonnet 4.5"
  - persona: "Argues against."
opening: "Today's motion: cats are better than dogs."
max_turns: 20
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "debate" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Slots) != 2 {
		t.Fatalf("Slots = %d", len(s.Slots))
	}
	if s.Slots[0].Model != "Claude Sonnet 4.5" {
		t.Errorf("slot model = %q", s.Slots[0].Model)
	}
	if s.MaxTurns == nil || *s.MaxTurns != 20 {
		t.Errorf("MaxTurns override not applied")
	}
}

func TestLoad_NameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "tea-party.yaml", `
participants:
  - persona: "Host."
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "tea-party" {
		t.Errorf("Name = %q, want tea-party", s.Name)
	}
}

func TestValidate_TooManyParticipants(t *testing.T) {
	s := &Scenario{Name: "crowd"}
	for i := 0; i < MaxSlots+1; i++ {
		s.Slots = append(s.Slots, Slot{Persona: "p"})
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for too many participants")
	}
}

func TestValidate_EmptyPersona(t *testing.T) {
	s := &Scenario{Name: "x", Slots: []Slot{{Persona: "  "}}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for empty persona")
	}
}

func TestApply_Overrides(t *testing.T) {
	base := config.ConversationConfig{MaxTurns: 0, WindowSize: 40}

	turns := 10
	window := 12
	share := true
	s := &Scenario{MaxTurns: &turns, WindowSize: &window, ShareReasoning: &share}

	out := s.Apply(base)
	if out.MaxTurns != 10 || out.WindowSize != 12 || !out.ShareReasoning {
		t.Errorf("Apply: %+v", out)
	}
	// untouched fields keep defaults
	if base.MaxTurns != 0 {
		t.Error("base mutated")
	}
}

func TestLoadByName_AndList(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "alpha.yaml", "participants:\n  - persona: \"a\"\n")
	writeScenario(t, dir, "beta.yml", "participants:\n  - persona: \"b\"\n")
	writeScenario(t, dir, "notes.txt", "not a scenario")

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List = %v", names)
	}

	s, err := LoadByName(dir, "beta")
	if err != nil {
		t.Fatalf("LoadByName: %v", err)
	}
	if s.Name != "beta" {
		t.Errorf("Name = %q", s.Name)
	}

	if _, err := LoadByName(dir, "gamma"); err == nil {
		t.Fatal("expected error for missing scenario")
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default scenario invalid: %v", err)
	}
}
