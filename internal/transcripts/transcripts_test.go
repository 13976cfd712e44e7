package transcripts

import (
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/colloquy/internal/conversation"
)

func TestCreateGetList(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	c1, err := fs.Create("debate", []string{"AI-1", "AI-2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(c1.ID, "conv_") {
		t.Errorf("ID = %q", c1.ID)
	}
	if c1.Status != StatusActive {
		t.Errorf("Status = %q", c1.Status)
	}

	got, err := fs.Get(c1.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Scenario != "debate" || len(got.Participants) != 2 {
		t.Errorf("meta = %+v", got)
	}

	time.Sleep(5 * time.Millisecond)
	c2, err := fs.Create("tea-party", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List len = %d", len(list))
	}
	if list[0].ID != c2.ID {
		t.Errorf("most recent first: got %s", list[0].ID)
	}
}

func TestAppendAndMessages(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	c, err := fs.Create("debate", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sink := fs.Sink(c.ID)
	for i := 1; i <= 3; i++ {
		msg := conversation.NewTextMessage(conversation.RoleAssistant, "AI-1", "m", "hello", i)
		if err := sink.Append(msg); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	msgs, err := fs.Messages(c.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[2].TurnIndex != 3 || msgs[2].Text() != "hello" {
		t.Errorf("last message = %+v", msgs[2])
	}

	meta, _ := fs.Get(c.ID)
	if meta.Turns != 3 {
		t.Errorf("meta turns = %d", meta.Turns)
	}
}

func TestFinish(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	c, _ := fs.Create("debate", nil)

	if err := fs.Finish(c.ID, "max-turns"); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, _ := fs.Get(c.ID)
	if got.Status != StatusEnded || got.EndReason != "max-turns" {
		t.Errorf("meta = %+v", got)
	}
}

func TestUpdateParticipants(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	c, _ := fs.Create("debate", []string{"AI-1"})

	if err := fs.UpdateParticipants(c.ID, []string{"AI-1", "AI-2", "AI-3"}); err != nil {
		t.Fatalf("UpdateParticipants: %v", err)
	}
	got, _ := fs.Get(c.ID)
	if len(got.Participants) != 3 {
		t.Errorf("participants = %v", got.Participants)
	}
}

func TestDelete(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	c, _ := fs.Create("debate", nil)

	if err := fs.Delete(c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Get(c.ID); err == nil {
		t.Fatal("expected error after delete")
	}
}
