// Package conversation implements the turn-taking engine: roster management,
// command extraction, prompt assembly, dispatch, and the scheduler loop that
// ties them together.
package conversation

import (
	"strings"
	"time"
)

// Role identifies the speaker class of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind tags a content part.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one element of a message's content: plain text or an image
// reference. The kind is fixed at construction.
type Part struct {
	Kind      PartKind `json:"kind"`
	Text      string   `json:"text,omitempty"`
	ImagePath string   `json:"image_path,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ImagePart builds an image reference part.
func ImagePart(path, url string) Part {
	return Part{Kind: PartImage, ImagePath: path, ImageURL: url}
}

// Message is one transcript entry. Messages are created by the scheduler at
// turn commit and never mutated afterward.
type Message struct {
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Author    string    `json:"author,omitempty"`   // participant name; empty for system/user
	ModelID   string    `json:"model_id,omitempty"` // provider name; empty for system/user
	TurnIndex int       `json:"turn_index"`
	Timestamp time.Time `json:"timestamp"`
}

// Text concatenates the message's text parts.
func (m *Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// HasImage reports whether the message carries an image part.
func (m *Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Kind == PartImage {
			return true
		}
	}
	return false
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role Role, author, modelID, text string, turn int) *Message {
	return &Message{
		Role:      role,
		Parts:     []Part{TextPart(text)},
		Author:    author,
		ModelID:   modelID,
		TurnIndex: turn,
		Timestamp: time.Now().UTC(),
	}
}

// Transcript is the append-only ordered message log for one conversation.
// Only the scheduler appends; everyone else reads snapshots.
type Transcript struct {
	messages []*Message
}

// Append adds a committed message.
func (t *Transcript) Append(msg *Message) {
	t.messages = append(t.messages, msg)
}

// Len returns the number of committed messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Window returns the most recent n messages (all of them if n <= 0 or n
// exceeds the length). The returned slice must not be mutated.
func (t *Transcript) Window(n int) []*Message {
	if n <= 0 || n >= len(t.messages) {
		return t.messages
	}
	return t.messages[len(t.messages)-n:]
}

// All returns every committed message. The returned slice must not be mutated.
func (t *Transcript) All() []*Message {
	return t.messages
}
