// Package ws bridges the event bus to WebSocket observers and accepts
// roster-control requests from them.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/dohr-michael/colloquy/internal/events"
)

// Controller is the running conversation the hub acts on. Mutations are
// queued by the scheduler and applied between turns.
type Controller interface {
	RequestAdd(model, persona string) error
	RequestRemove(name string) error
	RequestMute(name string) error
	CancelTurn()
	Stop()
	RosterNames() []string
	ModelNames() []string
}

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub manages WebSocket clients and bridges them to the event bus.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	bus         *events.Bus
	controller  Controller
	unsubscribe func()
}

// NewHub creates a new WebSocket hub connected to an event bus.
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		bus:     bus,
	}

	// Bridge every bus event to connected observers.
	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		frame, err := NewEventFrame(string(e.Type), e.ConversationID, e)
		if err != nil {
			slog.Error("marshal event frame", "error", err)
			return
		}
		data, err := MarshalFrame(frame)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		h.broadcast(data)
	})

	return h
}

// SetController attaches the active conversation.
func (h *Hub) SetController(c Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controller = c
}

func (h *Hub) getController() Controller {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.controller
}

// broadcast sends data to all connected clients.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Error("ws unmarshal frame", "error", err)
			continue
		}

		if frame.Type == FrameTypeRequest {
			c.handleRequest(frame)
		}
	}
}

// handleRequest processes a request frame (method dispatch). Blocking
// methods run in their own goroutine: roster mutations wait for a turn
// boundary and must not stall the read loop.
func (c *Client) handleRequest(frame Frame) {
	ctrl := c.hub.getController()
	if ctrl == nil {
		c.sendError(frame.ID, "no active conversation")
		return
	}

	switch Method(frame.Method) {
	case MethodAddAI:
		var params AddAIParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			c.sendError(frame.ID, "invalid params")
			return
		}
		go func() {
			if err := ctrl.RequestAdd(params.Model, params.Persona); err != nil {
				c.sendError(frame.ID, err.Error())
				return
			}
			c.sendOK(frame.ID, map[string]any{"roster": ctrl.RosterNames()})
		}()

	case MethodRemoveAI:
		var params NameParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			c.sendError(frame.ID, "invalid params")
			return
		}
		go func() {
			if err := ctrl.RequestRemove(params.Name); err != nil {
				c.sendError(frame.ID, err.Error())
				return
			}
			c.sendOK(frame.ID, map[string]any{"roster": ctrl.RosterNames()})
		}()

	case MethodMute:
		var params NameParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			c.sendError(frame.ID, "invalid params")
			return
		}
		go func() {
			if err := ctrl.RequestMute(params.Name); err != nil {
				c.sendError(frame.ID, err.Error())
				return
			}
			c.sendOK(frame.ID, map[string]string{"status": "muted"})
		}()

	case MethodCancelTurn:
		ctrl.CancelTurn()
		c.sendOK(frame.ID, map[string]string{"status": "cancelled"})

	case MethodStop:
		ctrl.Stop()
		c.sendOK(frame.ID, map[string]string{"status": "stopping"})

	case MethodListModels:
		c.sendOK(frame.ID, map[string]any{"models": ctrl.ModelNames()})

	case MethodRoster:
		c.sendOK(frame.ID, map[string]any{"roster": ctrl.RosterNames()})

	default:
		c.sendError(frame.ID, "unknown method: "+frame.Method)
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) sendOK(id string, payload any) {
	f, err := NewResponseFrame(id, true, payload, "")
	if err != nil {
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(id string, errMsg string) {
	f, err := NewResponseFrame(id, false, nil, errMsg)
	if err != nil {
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
