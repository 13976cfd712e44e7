package storage

import (
	"sync"

	"github.com/dohr-michael/colloquy/internal/events"
)

// Usage accumulates token counts.
type Usage struct {
	Turns        int `json:"turns"`
	TokensInput  int `json:"tokens_input"`
	TokensOutput int `json:"tokens_output"`
}

// UsageTracker subscribes to turn completion events and accumulates token
// usage per conversation and per participant.
type UsageTracker struct {
	mu             sync.Mutex
	byConversation map[string]*Usage
	byParticipant  map[string]*Usage
	unsubscribe    func()
}

// NewUsageTracker creates a tracker listening on the given bus.
func NewUsageTracker(bus *events.Bus) *UsageTracker {
	ut := &UsageTracker{
		byConversation: make(map[string]*Usage),
		byParticipant:  make(map[string]*Usage),
	}
	ut.unsubscribe = bus.Subscribe(ut.handleEvent, events.EventTurnCompleted)
	return ut
}

// Close unsubscribes the tracker from the event bus.
func (ut *UsageTracker) Close() {
	if ut.unsubscribe != nil {
		ut.unsubscribe()
	}
}

func (ut *UsageTracker) handleEvent(e events.Event) {
	payload, ok := events.GetTurnCompletedPayload(e)
	if !ok {
		return
	}

	ut.mu.Lock()
	defer ut.mu.Unlock()

	if e.ConversationID != "" {
		ut.add(ut.byConversation, e.ConversationID, payload)
	}
	if payload.Participant != "" {
		ut.add(ut.byParticipant, payload.Participant, payload)
	}
}

func (ut *UsageTracker) add(m map[string]*Usage, key string, p events.TurnCompletedPayload) {
	u := m[key]
	if u == nil {
		u = &Usage{}
		m[key] = u
	}
	u.Turns++
	u.TokensInput += p.TokensInput
	u.TokensOutput += p.TokensOutput
}

// Conversation returns accumulated usage for a conversation ID.
func (ut *UsageTracker) Conversation(id string) Usage {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	if u := ut.byConversation[id]; u != nil {
		return *u
	}
	return Usage{}
}

// Participant returns accumulated usage for a participant name.
func (ut *UsageTracker) Participant(name string) Usage {
	ut.mu.Lock()
	defer ut.mu.Unlock()
	if u := ut.byParticipant[name]; u != nil {
		return *u
	}
	return Usage{}
}

// Snapshot returns copies of both usage maps.
func (ut *UsageTracker) Snapshot() (byConversation, byParticipant map[string]Usage) {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	byConversation = make(map[string]Usage, len(ut.byConversation))
	for k, v := range ut.byConversation {
		byConversation[k] = *v
	}
	byParticipant = make(map[string]Usage, len(ut.byParticipant))
	for k, v := range ut.byParticipant {
		byParticipant[k] = *v
	}
	return byConversation, byParticipant
}
