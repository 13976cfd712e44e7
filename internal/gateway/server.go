// Package gateway exposes the observer HTTP/WebSocket API: event history,
// stored transcripts, token usage, and live conversation control.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/colloquy/internal/events"
	"github.com/dohr-michael/colloquy/internal/gateway/ws"
	"github.com/dohr-michael/colloquy/internal/storage"
	"github.com/dohr-michael/colloquy/internal/transcripts"
)

// Server is the Colloquy gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	store      *transcripts.FileStore
	usage      *storage.UsageTracker
	host       string
	port       int
}

// NewServer creates a new gateway server.
func NewServer(bus *events.Bus, store *transcripts.FileStore, usage *storage.UsageTracker, host string, port int) *Server {
	hub := ws.NewHub(bus)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	s := &Server{
		hub:   hub,
		bus:   bus,
		store: store,
		usage: usage,
		host:  host,
		port:  port,
	}

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/conversations", s.handleConversations)
	r.Get("/api/conversations/{id}/messages", s.handleMessages)
	r.Get("/api/usage", s.handleUsage)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return s
}

// SetController attaches the active conversation to the WS hub.
func (s *Server) SetController(c ws.Controller) {
	s.hub.SetController(c)
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("Colloquy gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}

	history := s.bus.History(limit)

	w.Header().Set("Content-Type", "application/json")

	type eventJSON struct {
		ID             string             `json:"id"`
		ConversationID string             `json:"conversation_id,omitempty"`
		Type           string             `json:"type"`
		Timestamp      string             `json:"timestamp"`
		Source         events.EventSource `json:"source"`
		Payload        map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:             e.ID,
			ConversationID: e.ConversationID,
			Type:           string(e.Type),
			Timestamp:      e.Timestamp.Format(time.RFC3339Nano),
			Source:         e.Source,
			Payload:        e.Payload,
		}
	}

	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "transcript store not available", http.StatusServiceUnavailable)
		return
	}

	list, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "transcript store not available", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	msgs, err := s.store.Messages(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		http.Error(w, "usage tracking not available", http.StatusServiceUnavailable)
		return
	}

	byConversation, byParticipant := s.usage.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversations": byConversation,
		"participants":  byParticipant,
	})
}
