package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveScenario_Default(t *testing.T) {
	s, err := resolveScenario("")
	if err != nil {
		t.Fatalf("resolveScenario: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Slots) == 0 {
		t.Error("default scenario has no participants")
	}
}

func TestResolveScenario_Path(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debate.yaml")
	data := []byte("name: debate\nparticipants:\n  - persona: optimist\n  - persona: pessimist\nopening: Begin.\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := resolveScenario(path)
	if err != nil {
		t.Fatalf("resolveScenario: %v", err)
	}
	if s.Name != "debate" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Slots) != 2 {
		t.Errorf("Slots = %d", len(s.Slots))
	}
}

func TestResolveScenario_UnknownName(t *testing.T) {
	t.Setenv("COLLOQUY_PATH", t.TempDir())
	if _, err := resolveScenario("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown scenario name")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a very long opening line", 10); got != "a very ..." {
		t.Errorf("truncate = %q", got)
	}
}
