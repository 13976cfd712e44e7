package conversation

import (
	"errors"
	"fmt"
)

// MaxParticipants bounds the roster size.
const MaxParticipants = 5

var (
	// ErrRosterFull is returned by Add when the roster already holds
	// MaxParticipants entries.
	ErrRosterFull = errors.New("roster is full")
	// ErrUnknownParticipant is returned when a name is not in the roster.
	ErrUnknownParticipant = errors.New("unknown participant")
	// ErrLastParticipant is returned by Remove when removal would empty the
	// roster.
	ErrLastParticipant = errors.New("cannot remove the last participant")
)

// Participant is one active member of the conversation. The name is minted
// once and never reused, even after removal.
type Participant struct {
	Name          string `json:"name"`
	ModelID       string `json:"model_id"`
	Persona       string `json:"persona"`
	MutedNextTurn bool   `json:"muted_next_turn,omitempty"`
}

// Roster owns the ordered set of active participants and the turn cursor.
// It is mutated only by the scheduler goroutine.
type Roster struct {
	participants []*Participant
	current      int
	nameCounter  int
}

// NewRoster creates an empty roster. Participants are added via Add.
func NewRoster() *Roster {
	return &Roster{}
}

// Add appends a participant with a freshly minted "AI-N" name. Fails with
// ErrRosterFull when the roster already holds MaxParticipants; the roster is
// unchanged on failure.
func (r *Roster) Add(modelID, persona string) (string, error) {
	if len(r.participants) >= MaxParticipants {
		return "", fmt.Errorf("%w: already %d participants", ErrRosterFull, len(r.participants))
	}

	r.nameCounter++
	name := fmt.Sprintf("AI-%d", r.nameCounter)
	r.participants = append(r.participants, &Participant{
		Name:    name,
		ModelID: modelID,
		Persona: persona,
	})
	return name, nil
}

// Remove deletes the named participant. If the removed position is at or
// before the current cursor, the cursor moves back one step (with wraparound)
// so the next Advance lands on the participant that was already due.
func (r *Roster) Remove(name string) error {
	pos := r.indexOf(name)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, name)
	}
	if len(r.participants) == 1 {
		return fmt.Errorf("%w: %s", ErrLastParticipant, name)
	}

	r.participants = append(r.participants[:pos], r.participants[pos+1:]...)

	if pos <= r.current {
		r.current--
		if r.current < 0 {
			r.current = len(r.participants) - 1
		}
	}
	return nil
}

// Mute sets the skip-once flag on the named participant. Muting an
// already-muted participant is a no-op success.
func (r *Roster) Mute(name string) error {
	pos := r.indexOf(name)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, name)
	}
	r.participants[pos].MutedNextTurn = true
	return nil
}

// Current returns the participant at the cursor, or nil if the roster is empty.
func (r *Roster) Current() *Participant {
	if len(r.participants) == 0 {
		return nil
	}
	return r.participants[r.current]
}

// Advance moves the cursor to the next position, wrapping around.
func (r *Roster) Advance() {
	if len(r.participants) == 0 {
		return
	}
	r.current = (r.current + 1) % len(r.participants)
}

// ConsumeMute clears and returns the current participant's skip flag.
func (r *Roster) ConsumeMute() bool {
	p := r.Current()
	if p == nil || !p.MutedNextTurn {
		return false
	}
	p.MutedNextTurn = false
	return true
}

// Get returns the named participant, or nil.
func (r *Roster) Get(name string) *Participant {
	pos := r.indexOf(name)
	if pos < 0 {
		return nil
	}
	return r.participants[pos]
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.participants)
}

// Names returns participant names in turn order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.participants))
	for i, p := range r.participants {
		names[i] = p.Name
	}
	return names
}

// Snapshot returns a copy of the participants in turn order.
func (r *Roster) Snapshot() []Participant {
	out := make([]Participant, len(r.participants))
	for i, p := range r.participants {
		out[i] = *p
	}
	return out
}

func (r *Roster) indexOf(name string) int {
	for i, p := range r.participants {
		if p.Name == name {
			return i
		}
	}
	return -1
}
