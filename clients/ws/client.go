// Package ws provides a WebSocket client for the Colloquy gateway.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/dohr-michael/colloquy/internal/gateway/ws"
)

// Client is a WebSocket client for the Colloquy gateway.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

func (c *Client) request(method wsprotocol.Method, params any) error {
	seq := atomic.AddUint64(&c.reqSeq, 1)

	frame := wsprotocol.Frame{
		Type:   wsprotocol.FrameTypeRequest,
		ID:     fmt.Sprintf("req-%d", seq),
		Method: string(method),
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		frame.Params = data
	}

	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return err
	}
	return c.conn.Write(c.ctx, websocket.MessageText, data)
}

// AddAI asks the scheduler to add a participant at the next turn boundary.
func (c *Client) AddAI(model, persona string) error {
	return c.request(wsprotocol.MethodAddAI, wsprotocol.AddAIParams{Model: model, Persona: persona})
}

// RemoveAI asks the scheduler to remove a participant.
func (c *Client) RemoveAI(name string) error {
	return c.request(wsprotocol.MethodRemoveAI, wsprotocol.NameParams{Name: name})
}

// Mute sets a participant's skip-once flag.
func (c *Client) Mute(name string) error {
	return c.request(wsprotocol.MethodMute, wsprotocol.NameParams{Name: name})
}

// CancelTurn aborts the in-flight turn.
func (c *Client) CancelTurn() error {
	return c.request(wsprotocol.MethodCancelTurn, nil)
}

// Stop ends the conversation.
func (c *Client) Stop() error {
	return c.request(wsprotocol.MethodStop, nil)
}

// ListModels requests the model catalog.
func (c *Client) ListModels() error {
	return c.request(wsprotocol.MethodListModels, nil)
}

// Roster requests the current roster.
func (c *Client) Roster() error {
	return c.request(wsprotocol.MethodRoster, nil)
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
