package events

import (
	"sync"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, EventTurnStarted)

	bus.Publish(NewTypedEvent(SourceScheduler, TurnStartedPayload{Turn: 1, Participant: "AI-1"}))
	bus.Publish(NewTypedEvent(SourceScheduler, TurnSkippedPayload{Participant: "AI-2", Reason: "muted"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventTurnStarted {
		t.Errorf("expected turn.started, got %s", received[0].Type)
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	count := 0

	bus.Subscribe(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewTypedEvent(SourceScheduler, TurnStartedPayload{Turn: 1, Participant: "AI-1"}))
	bus.Publish(NewTypedEvent(SourceMedia, MediaGeneratedPayload{Kind: "image", Prompt: "a fox"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Add(NewEvent(EventTurnCompleted, SourceScheduler, map[string]any{"turn": i}))
	}

	events := rb.Get(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestSubscribeChan(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	ch, unsub := bus.SubscribeChan(8, EventRosterChanged)
	defer unsub()

	bus.Publish(NewTypedEvent(SourceScheduler, RosterChangedPayload{Action: "added", Name: "AI-3"}))

	select {
	case e := <-ch:
		if e.Type != EventRosterChanged {
			t.Errorf("expected roster.changed, got %s", e.Type)
		}
		payload, ok := GetRosterChangedPayload(e)
		if !ok || payload.Name != "AI-3" {
			t.Errorf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewBus(8)
	bus.Close()

	// Must not panic or block.
	bus.Publish(NewTypedEvent(SourceScheduler, TurnStartedPayload{Turn: 1}))
}
