package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// CONVERSATION EVENTS
// =============================================================================

type ConversationStartedPayload struct {
	Scenario     string   `json:"scenario"`
	Participants []string `json:"participants"`
}

func (ConversationStartedPayload) EventType() EventType { return EventConversationStarted }

type ConversationEndedPayload struct {
	Reason string `json:"reason"` // "stopped", "max-turns", "roster-empty"
	Turns  int    `json:"turns"`
	Error  string `json:"error,omitempty"`
}

func (ConversationEndedPayload) EventType() EventType { return EventConversationEnded }

// =============================================================================
// TURN EVENTS
// =============================================================================

type StreamPhase string

const (
	StreamPhaseStart StreamPhase = "start"
	StreamPhaseDelta StreamPhase = "delta"
	StreamPhaseEnd   StreamPhase = "end"
)

type TurnStartedPayload struct {
	Turn        int    `json:"turn"`
	Participant string `json:"participant"`
	Model       string `json:"model"`
}

func (TurnStartedPayload) EventType() EventType { return EventTurnStarted }

type TurnStreamPayload struct {
	Phase       StreamPhase `json:"phase"`
	Participant string      `json:"participant"`
	Content     string      `json:"content"`
	Index       int         `json:"index"`
}

func (TurnStreamPayload) EventType() EventType { return EventTurnStream }

type TurnCompletedPayload struct {
	Turn         int    `json:"turn"`
	Participant  string `json:"participant"`
	Content      string `json:"content"`
	Commands     int    `json:"commands"`
	TokensInput  int    `json:"tokens_input,omitempty"`
	TokensOutput int    `json:"tokens_output,omitempty"`
}

func (TurnCompletedPayload) EventType() EventType { return EventTurnCompleted }

type TurnSkippedPayload struct {
	Participant string `json:"participant"`
	Reason      string `json:"reason"` // "muted"
}

func (TurnSkippedPayload) EventType() EventType { return EventTurnSkipped }

type TurnAbortedPayload struct {
	Participant string `json:"participant"`
	Reason      string `json:"reason"` // "cancelled", "timeout", "backend-error"
	Error       string `json:"error,omitempty"`
	WillRetry   bool   `json:"will_retry"`
}

func (TurnAbortedPayload) EventType() EventType { return EventTurnAborted }

// =============================================================================
// ROSTER / COMMAND EVENTS
// =============================================================================

type RosterChangedPayload struct {
	Action      string   `json:"action"` // "added", "removed", "muted"
	Name        string   `json:"name"`
	Model       string   `json:"model,omitempty"`
	Persona     string   `json:"persona,omitempty"`
	RequestedBy string   `json:"requested_by,omitempty"` // participant or "user"
	Roster      []string `json:"roster"`
}

func (RosterChangedPayload) EventType() EventType { return EventRosterChanged }

type CommandFailedPayload struct {
	Kind        string `json:"kind"`
	Participant string `json:"participant"`
	Reason      string `json:"reason"`
}

func (CommandFailedPayload) EventType() EventType { return EventCommandFailed }

type ModelListPayload struct {
	Requested string   `json:"requested_by"`
	Models    []string `json:"models"`
}

func (ModelListPayload) EventType() EventType { return EventModelList }

// =============================================================================
// MEDIA EVENTS
// =============================================================================

type MediaGeneratedPayload struct {
	Kind        string `json:"kind"` // "image", "video"
	Prompt      string `json:"prompt"`
	Path        string `json:"path,omitempty"`  // local file for images
	JobID       string `json:"job_id,omitempty"` // async operation name for videos
	Participant string `json:"participant"`
}

func (MediaGeneratedPayload) EventType() EventType { return EventMediaGenerated }

// =============================================================================
// SCHEDULE EVENTS
// =============================================================================

type ScheduleTriggerPayload struct {
	Scenario string `json:"scenario"`
	Cron     string `json:"cron"`
}

func (ScheduleTriggerPayload) EventType() EventType { return EventScheduleTrigger }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithConversation(source EventSource, payload EventPayload, conversationID string) Event {
	return Event{
		ID:             generateEventID(),
		ConversationID: conversationID,
		Type:           payload.EventType(),
		Timestamp:      time.Now(),
		Source:         source,
		Payload:        toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetTurnStartedPayload(e Event) (TurnStartedPayload, bool) {
	return ExtractPayload[TurnStartedPayload](e)
}

func GetTurnStreamPayload(e Event) (TurnStreamPayload, bool) {
	return ExtractPayload[TurnStreamPayload](e)
}

func GetTurnCompletedPayload(e Event) (TurnCompletedPayload, bool) {
	return ExtractPayload[TurnCompletedPayload](e)
}

func GetTurnAbortedPayload(e Event) (TurnAbortedPayload, bool) {
	return ExtractPayload[TurnAbortedPayload](e)
}

func GetRosterChangedPayload(e Event) (RosterChangedPayload, bool) {
	return ExtractPayload[RosterChangedPayload](e)
}

func GetConversationEndedPayload(e Event) (ConversationEndedPayload, bool) {
	return ExtractPayload[ConversationEndedPayload](e)
}

func GetScheduleTriggerPayload(e Event) (ScheduleTriggerPayload, bool) {
	return ExtractPayload[ScheduleTriggerPayload](e)
}
