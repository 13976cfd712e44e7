package ws

import (
	"encoding/json"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	params, _ := json.Marshal(AddAIParams{Model: "GPT 5.1", Persona: "skeptic"})
	f := Frame{
		Type:   FrameTypeRequest,
		ID:     "1",
		Method: string(MethodAddAI),
		Params: params,
	}

	data, err := MarshalFrame(f)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}

	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}
	if got.Type != FrameTypeRequest || got.Method != string(MethodAddAI) {
		t.Errorf("frame = %+v", got)
	}

	var p AddAIParams
	if err := json.Unmarshal(got.Params, &p); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if p.Model != "GPT 5.1" || p.Persona != "skeptic" {
		t.Errorf("params = %+v", p)
	}
}

func TestNewEventFrame(t *testing.T) {
	f, err := NewEventFrame("turn.completed", "conv_1", map[string]any{"turn": 3})
	if err != nil {
		t.Fatalf("NewEventFrame: %v", err)
	}
	if f.Type != FrameTypeEvent || f.Event != "turn.completed" || f.ConversationID != "conv_1" {
		t.Errorf("frame = %+v", f)
	}

	var payload map[string]any
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["turn"] != float64(3) {
		t.Errorf("payload = %v", payload)
	}
}

func TestNewResponseFrame_Error(t *testing.T) {
	f, err := NewResponseFrame("42", false, nil, "roster is full")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.OK == nil || *f.OK {
		t.Error("OK should be false")
	}
	if f.Error != "roster is full" || f.ID != "42" {
		t.Errorf("frame = %+v", f)
	}
	if f.Payload != nil {
		t.Error("payload should be empty")
	}
}
