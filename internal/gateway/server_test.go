package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dohr-michael/colloquy/internal/events"
	"github.com/dohr-michael/colloquy/internal/transcripts"
)

func newTestServer(t *testing.T) (*Server, *events.Bus, *transcripts.FileStore) {
	t.Helper()
	bus := events.NewBus(64)
	t.Cleanup(bus.Close)
	store := transcripts.NewFileStore(t.TempDir())
	return NewServer(bus, store, nil, "127.0.0.1", 0), bus, store
}

func TestHandleHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleEvents(t *testing.T) {
	s, bus, _ := newTestServer(t)

	bus.Publish(events.NewTypedEventWithConversation(events.SourceScheduler,
		events.TurnStartedPayload{Turn: 1, Participant: "AI-1", Model: "m"}, "conv_1"))

	// Wait for the bus dispatch goroutine to store history.
	deadline := time.Now().Add(2 * time.Second)
	for len(bus.History(10)) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events?limit=10", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("events = %d", len(body))
	}
	if body[0]["type"] != string(events.EventTurnStarted) {
		t.Errorf("event = %v", body[0])
	}
	if body[0]["conversation_id"] != "conv_1" {
		t.Errorf("conversation_id = %v", body[0]["conversation_id"])
	}
}

func TestHandleConversations(t *testing.T) {
	s, _, store := newTestServer(t)

	c, err := store.Create("debate", []string{"AI-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body []transcripts.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body) != 1 || body[0].ID != c.ID {
		t.Errorf("conversations = %+v", body)
	}
}

func TestHandleMessages_EmptyConversation(t *testing.T) {
	s, _, store := newTestServer(t)
	c, _ := store.Create("debate", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+c.ID+"/messages", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleUsage_Unavailable(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
