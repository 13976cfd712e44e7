package conversation

import (
	"errors"
	"fmt"
	"testing"
)

func rosterWith(t *testing.T, n int) *Roster {
	t.Helper()
	r := NewRoster()
	for i := 0; i < n; i++ {
		if _, err := r.Add("model", fmt.Sprintf("persona %d", i+1)); err != nil {
			t.Fatalf("Add %d: %v", i+1, err)
		}
	}
	return r
}

func TestRoster_NamesMintedSequentially(t *testing.T) {
	r := rosterWith(t, 3)

	want := []string{"AI-1", "AI-2", "AI-3"}
	got := r.Names()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names = %v, want %v", got, want)
		}
	}
}

func TestRoster_NamesNeverRecycled(t *testing.T) {
	r := rosterWith(t, 2)

	if err := r.Remove("AI-2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	name, err := r.Add("model", "p")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if name != "AI-3" {
		t.Fatalf("name after removal = %q, want AI-3", name)
	}
}

func TestRoster_AddWhenFull(t *testing.T) {
	r := rosterWith(t, MaxParticipants)
	before := r.Names()

	_, err := r.Add("model", "p")
	if !errors.Is(err, ErrRosterFull) {
		t.Fatalf("expected ErrRosterFull, got %v", err)
	}

	after := r.Names()
	if len(after) != len(before) {
		t.Fatal("roster changed on failed add")
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatal("roster order changed on failed add")
		}
	}
}

func TestRoster_RemoveUnknown(t *testing.T) {
	r := rosterWith(t, 2)
	if err := r.Remove("AI-9"); !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("expected ErrUnknownParticipant, got %v", err)
	}
}

func TestRoster_RemoveLast(t *testing.T) {
	r := rosterWith(t, 1)
	if err := r.Remove("AI-1"); !errors.Is(err, ErrLastParticipant) {
		t.Fatalf("expected ErrLastParticipant, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatal("roster changed on failed remove")
	}
}

func TestRoster_RemoveAfterCursor(t *testing.T) {
	// AI-3 is speaking (cursor at 2) and removes AI-5: the next speaker
	// must be AI-4.
	r := rosterWith(t, 5)
	r.Advance()
	r.Advance() // cursor on AI-3

	if err := r.Remove("AI-5"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.Advance()
	if got := r.Current().Name; got != "AI-4" {
		t.Fatalf("next speaker = %s, want AI-4", got)
	}
}

func TestRoster_RemoveBeforeCursor(t *testing.T) {
	// AI-3 is speaking and removes AI-1: cursor shifts back so the next
	// speaker is still AI-4.
	r := rosterWith(t, 4)
	r.Advance()
	r.Advance() // cursor on AI-3

	if err := r.Remove("AI-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.Advance()
	if got := r.Current().Name; got != "AI-4" {
		t.Fatalf("next speaker = %s, want AI-4", got)
	}
}

func TestRoster_SelfRemovalAdvancesToSuccessor(t *testing.T) {
	r := rosterWith(t, 3)
	r.Advance() // cursor on AI-2

	if err := r.Remove("AI-2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.Advance()
	if got := r.Current().Name; got != "AI-3" {
		t.Fatalf("next speaker = %s, want AI-3", got)
	}
}

func TestRoster_SelfRemovalWrapsAround(t *testing.T) {
	// First participant removes itself: cursor wraps so the next Advance
	// lands on the new first entry.
	r := rosterWith(t, 3)

	if err := r.Remove("AI-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.Advance()
	if got := r.Current().Name; got != "AI-2" {
		t.Fatalf("next speaker = %s, want AI-2", got)
	}
}

func TestRoster_AddDoesNotDisturbTurnOrder(t *testing.T) {
	r := rosterWith(t, 2) // cursor on AI-1

	if _, err := r.Add("gpt-5", "skeptic"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r.Advance()
	if got := r.Current().Name; got != "AI-2" {
		t.Fatalf("next speaker = %s, want AI-2", got)
	}

	added := r.Get("AI-3")
	if added == nil || added.ModelID != "gpt-5" || added.Persona != "skeptic" {
		t.Fatalf("added participant = %+v", added)
	}
}

func TestRoster_MuteConsumedOnce(t *testing.T) {
	r := rosterWith(t, 2)

	if err := r.Mute("AI-1"); err != nil {
		t.Fatalf("Mute: %v", err)
	}
	// Idempotent
	if err := r.Mute("AI-1"); err != nil {
		t.Fatalf("second Mute: %v", err)
	}

	if !r.ConsumeMute() {
		t.Fatal("expected muted flag on AI-1")
	}
	if r.ConsumeMute() {
		t.Fatal("mute flag must be consumed once")
	}
}

func TestRoster_MuteUnknown(t *testing.T) {
	r := rosterWith(t, 1)
	if err := r.Mute("AI-7"); !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("expected ErrUnknownParticipant, got %v", err)
	}
}

func TestRoster_RoundRobin(t *testing.T) {
	r := rosterWith(t, 3)

	var visited []string
	for i := 0; i < 6; i++ {
		visited = append(visited, r.Current().Name)
		r.Advance()
	}
	want := []string{"AI-1", "AI-2", "AI-3", "AI-1", "AI-2", "AI-3"}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visit order = %v, want %v", visited, want)
		}
	}
}
