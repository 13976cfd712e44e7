package events

import "testing"

func TestTypedEventRoundTrip(t *testing.T) {
	e := NewTypedEventWithConversation(SourceScheduler, TurnCompletedPayload{
		Turn:        3,
		Participant: "AI-2",
		Content:     "hello",
		Commands:    1,
	}, "conv_abc123")

	if e.Type != EventTurnCompleted {
		t.Fatalf("expected turn.completed, got %s", e.Type)
	}
	if e.ConversationID != "conv_abc123" {
		t.Errorf("conversation id lost: %q", e.ConversationID)
	}

	payload, ok := GetTurnCompletedPayload(e)
	if !ok {
		t.Fatal("extract failed")
	}
	if payload.Turn != 3 || payload.Participant != "AI-2" || payload.Content != "hello" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestExtractWrongType(t *testing.T) {
	e := NewTypedEvent(SourceScheduler, TurnSkippedPayload{Participant: "AI-1", Reason: "muted"})

	// Extracting a different payload shape succeeds structurally but yields zero values.
	payload, _ := GetTurnCompletedPayload(e)
	if payload.Turn != 0 {
		t.Errorf("expected zero turn, got %d", payload.Turn)
	}
}

func TestEventIDsUnique(t *testing.T) {
	a := NewTypedEvent(SourceScheduler, TurnStartedPayload{Turn: 1})
	b := NewTypedEvent(SourceScheduler, TurnStartedPayload{Turn: 2})
	if a.ID == b.ID {
		t.Errorf("event IDs must be unique: %s", a.ID)
	}
}
