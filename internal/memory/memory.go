// Package memory gives each participant a long-term memory file that
// survives across conversations. Entries are appended as JSONL per
// participant name and folded into the system prompt as notes.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dohr-michael/colloquy/internal/conversation"
	"github.com/dohr-michael/colloquy/internal/storage/dirstore"
)

// maxNoteEntries bounds how many recent entries are folded into the prompt.
const maxNoteEntries = 20

// Entry is one remembered message.
type Entry struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	Text           string    `json:"text"`
	TurnIndex      int       `json:"turn_index"`
	Timestamp      time.Time `json:"timestamp"`
}

// FileStore persists participant memory under a base directory, one
// subdirectory per participant name. Views created by ForConversation share
// the parent's lock: concurrent conversations append to the same files.
type FileStore struct {
	mu             *sync.Mutex
	ds             *dirstore.DirStore
	conversationID string
}

// NewFileStore creates a memory store rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{mu: &sync.Mutex{}, ds: dirstore.NewDirStore(baseDir, "participant")}
}

// ForConversation returns a view tagging appended entries with the
// conversation ID. Satisfies the scheduler's memory sink.
func (fs *FileStore) ForConversation(id string) *FileStore {
	return &FileStore{mu: fs.mu, ds: fs.ds, conversationID: id}
}

// Append records a committed message under the participant's memory file.
func (fs *FileStore) Append(participant string, msg *conversation.Message) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.ds.EnsureDir(participant); err != nil {
		return err
	}
	return fs.ds.AppendJSONL(participant, "memory.jsonl", Entry{
		ConversationID: fs.conversationID,
		Text:           msg.Text(),
		TurnIndex:      msg.TurnIndex,
		Timestamp:      msg.Timestamp,
	})
}

// Load returns all remembered entries for a participant, in append order.
func (fs *FileStore) Load(participant string) ([]Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return dirstore.LoadJSONL[Entry](fs.ds, participant, "memory.jsonl")
}

// Notes formats the most recent entries for inclusion in a system prompt.
// Returns an empty string when the participant has no memory yet.
func (fs *FileStore) Notes(participant string) (string, error) {
	entries, err := fs.Load(participant)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	if len(entries) > maxNoteEntries {
		entries = entries[len(entries)-maxNoteEntries:]
	}

	var b strings.Builder
	for _, e := range entries {
		text := conversation.StripReasoning(e.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Forget removes a participant's memory file.
func (fs *FileStore) Forget(participant string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.ds.RemoveDir(participant)
}
