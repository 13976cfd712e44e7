// Package transcripts persists conversations as directories with a meta.json
// and an append-only messages.jsonl.
package transcripts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/colloquy/internal/conversation"
	"github.com/dohr-michael/colloquy/internal/storage/dirstore"
)

// Status of a stored conversation.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Conversation is the meta.json record for one conversation.
type Conversation struct {
	ID           string    `json:"id"`
	Scenario     string    `json:"scenario"`
	Status       Status    `json:"status"`
	Participants []string  `json:"participants"`
	Turns        int       `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	EndReason    string    `json:"end_reason,omitempty"`
}

// FileStore persists conversations under a base directory.
type FileStore struct {
	mu sync.Mutex
	ds *dirstore.DirStore
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{ds: dirstore.NewDirStore(baseDir, "conversation")}
}

func generateConversationID() string {
	u := uuid.New().String()
	return "conv_" + strings.ReplaceAll(u[:8], "-", "")
}

// Create initialises a new conversation directory with meta.json.
func (fs *FileStore) Create(scenario string, participants []string) (*Conversation, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	c := &Conversation{
		ID:           generateConversationID(),
		Scenario:     scenario,
		Status:       StatusActive,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := fs.ds.EnsureDir(c.ID); err != nil {
		return nil, err
	}
	if err := fs.ds.WriteMeta(c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get reads conversation metadata by ID.
func (fs *FileStore) Get(id string) (*Conversation, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var c Conversation
	if err := fs.ds.ReadMeta(id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all stored conversations, most recently updated first.
func (fs *FileStore) List() ([]*Conversation, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids, err := fs.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var out []*Conversation
	for _, id := range ids {
		var c Conversation
		if err := fs.ds.ReadMeta(id, &c); err != nil {
			continue // skip corrupted entries
		}
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Append writes one committed message to the conversation's messages.jsonl
// and refreshes the meta.
func (fs *FileStore) Append(id string, msg *conversation.Message) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.ds.AppendJSONL(id, "messages.jsonl", msg); err != nil {
		return err
	}

	var c Conversation
	if err := fs.ds.ReadMeta(id, &c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	if msg.TurnIndex > c.Turns {
		c.Turns = msg.TurnIndex
	}
	return fs.ds.WriteMeta(id, &c)
}

// Messages loads the committed messages for a conversation, in order.
func (fs *FileStore) Messages(id string) ([]*conversation.Message, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return dirstore.LoadJSONL[*conversation.Message](fs.ds, id, "messages.jsonl")
}

// Finish marks a conversation as ended.
func (fs *FileStore) Finish(id, reason string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var c Conversation
	if err := fs.ds.ReadMeta(id, &c); err != nil {
		return err
	}
	c.Status = StatusEnded
	c.EndReason = reason
	c.UpdatedAt = time.Now()
	return fs.ds.WriteMeta(id, &c)
}

// UpdateParticipants records the current roster in the meta.
func (fs *FileStore) UpdateParticipants(id string, names []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var c Conversation
	if err := fs.ds.ReadMeta(id, &c); err != nil {
		return err
	}
	c.Participants = names
	c.UpdatedAt = time.Now()
	return fs.ds.WriteMeta(id, &c)
}

// Delete removes a conversation and its messages.
func (fs *FileStore) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.ds.RemoveDir(id)
}

// Sink binds the store to one conversation, satisfying the scheduler's
// transcript sink.
func (fs *FileStore) Sink(id string) *Sink {
	return &Sink{store: fs, id: id}
}

// Sink appends messages for a single conversation.
type Sink struct {
	store *FileStore
	id    string
}

func (s *Sink) Append(msg *conversation.Message) error {
	if s.store == nil {
		return fmt.Errorf("transcript sink not bound")
	}
	return s.store.Append(s.id, msg)
}
