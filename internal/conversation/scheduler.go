package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/events"
)

// ErrEmptyRoster terminates a conversation that has no participant to select.
var ErrEmptyRoster = errors.New("roster is empty")

// Cancel policies for an aborted turn.
const (
	PolicyRetryOnceThenSkip = "retry-once-then-skip"
	PolicyRetry             = "retry"
	PolicySkip              = "skip"
)

// TurnDispatcher issues the streaming model request for one turn. Satisfied
// by *Dispatcher.
type TurnDispatcher interface {
	Dispatch(ctx context.Context, modelName string, messages []*schema.Message) <-chan StreamEvent
}

// MemorySink persists per-participant long-term memory.
type MemorySink interface {
	Append(participant string, msg *Message) error
	Notes(participant string) (string, error)
}

// TranscriptSink persists committed messages.
type TranscriptSink interface {
	Append(msg *Message) error
}

// MediaGenerator handles image and video commands.
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (path string, err error)
	GenerateVideo(ctx context.Context, prompt string) (jobID string, err error)
}

// ModelCatalog resolves catalog display names for add_ai and lists the
// available models. Satisfied by *models.Registry.
type ModelCatalog interface {
	Resolve(name string) (string, bool)
	CatalogNames() []string
}

// SchedulerConfig wires the scheduler's collaborators.
type SchedulerConfig struct {
	ConversationID string
	Conversation   config.ConversationConfig
	SystemPrompt   string

	Dispatcher TurnDispatcher
	Bus        *events.Bus
	Logger     *slog.Logger

	// Optional collaborators; nil disables the corresponding feature.
	Memory      MemorySink
	Transcripts TranscriptSink
	Media       MediaGenerator
	Catalog     ModelCatalog
}

// rosterRequest is an externally submitted roster mutation, applied only
// between turns.
type rosterRequest struct {
	action  string // "add", "remove", "mute"
	name    string
	modelID string
	persona string
	reply   chan error
}

// Scheduler drives the conversation loop: one turn in flight at a time,
// transcript committed strictly in turn order. Roster and transcript are
// mutated only by the Run goroutine.
type Scheduler struct {
	cfg        SchedulerConfig
	roster     *Roster
	transcript *Transcript
	builder    *ContextBuilder
	log        *slog.Logger

	// stateMu guards roster, transcript, and turnCount against snapshot
	// readers on other goroutines. The Run goroutine is the only writer.
	stateMu   sync.RWMutex
	turnCount int

	external chan rosterRequest

	mu         sync.Mutex
	cancelTurn context.CancelFunc
	stopped    bool
	stopCh     chan struct{}
}

// NewScheduler builds a scheduler over an already-populated roster.
func NewScheduler(cfg SchedulerConfig, roster *Roster) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:        cfg,
		roster:     roster,
		transcript: &Transcript{},
		builder: &ContextBuilder{
			SystemPrompt: cfg.SystemPrompt,
			Config:       cfg.Conversation,
		},
		log:      logger.With("conversation", cfg.ConversationID),
		external: make(chan rosterRequest, 16),
		stopCh:   make(chan struct{}),
	}
}

// Seed appends an opening message before the loop starts.
func (s *Scheduler) Seed(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	msg := NewTextMessage(RoleUser, "", "", text, 0)
	s.stateMu.Lock()
	s.transcript.Append(msg)
	s.stateMu.Unlock()
	s.persist(msg)
}

// Run executes the conversation loop until stopped, the turn limit is
// reached, or the roster cannot produce a speaker. Only roster exhaustion is
// an error.
func (s *Scheduler) Run(ctx context.Context) error {
	// Unblocks pending external requests when the loop exits for any reason.
	defer s.Stop()

	s.publish(events.ConversationStartedPayload{
		Scenario:     s.cfg.SystemPrompt,
		Participants: s.roster.Names(),
	})

	reason := "stopped"
	var runErr error

	for {
		if err := s.checkStop(ctx); err != nil {
			break
		}
		if s.cfg.Conversation.MaxTurns > 0 && s.turnCount >= s.cfg.Conversation.MaxTurns {
			reason = "max-turns"
			break
		}
		if s.roster.Len() == 0 {
			reason = "roster-empty"
			runErr = ErrEmptyRoster
			break
		}

		// Selecting: consume the skip-once flag without producing a turn.
		speaker := s.roster.Current()
		s.stateMu.Lock()
		muted := s.roster.ConsumeMute()
		s.stateMu.Unlock()
		if muted {
			s.log.Info("turn skipped", "participant", speaker.Name, "reason", "muted")
			s.publish(events.TurnSkippedPayload{Participant: speaker.Name, Reason: "muted"})
			s.advance()
			s.applyExternal()
			continue
		}

		retried := false
	turn:
		for {
			if err := s.checkStop(ctx); err != nil {
				break turn
			}
			committed, err := s.runTurn(ctx, speaker, retried)
			switch {
			case err == nil && committed:
				break turn
			case err == nil && !committed:
				// Aborted (cancel or timeout): same index, policy decides.
				switch s.cfg.Conversation.CancelPolicy {
				case PolicyRetry:
					continue
				case PolicySkip:
					s.publish(events.TurnSkippedPayload{Participant: speaker.Name, Reason: "aborted"})
					break turn
				default: // retry-once-then-skip
					if retried {
						s.publish(events.TurnSkippedPayload{Participant: speaker.Name, Reason: "aborted"})
						break turn
					}
					retried = true
					continue
				}
			default:
				// Backend failure: abort only this turn, conversation continues.
				s.log.Error("turn failed", "participant", speaker.Name, "error", err)
				s.publish(events.TurnAbortedPayload{
					Participant: speaker.Name,
					Reason:      "backend-error",
					Error:       err.Error(),
				})
				break turn
			}
		}

		if err := s.checkStop(ctx); err != nil {
			break
		}

		s.advance()
		s.applyExternal()

		// Delaying: cancellable inter-turn pause.
		if delay := s.cfg.Conversation.TurnDelay.Duration(); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			case <-s.stopCh:
			}
		}
	}

	ended := events.ConversationEndedPayload{Reason: reason, Turns: s.turnCount}
	if runErr != nil {
		ended.Error = runErr.Error()
	}
	s.publish(ended)
	return runErr
}

// runTurn executes one full turn for the given speaker. Returns
// (true, nil) when a message was committed, (false, nil) when the turn was
// cancelled or timed out with nothing committed, and (false, err) on a
// terminal backend failure.
func (s *Scheduler) runTurn(ctx context.Context, speaker *Participant, retried bool) (bool, error) {
	var turnCtx context.Context
	var cancel context.CancelFunc
	if timeout := s.cfg.Conversation.TurnTimeout.Duration(); timeout > 0 {
		turnCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		turnCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	s.mu.Lock()
	s.cancelTurn = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancelTurn = nil
		s.mu.Unlock()
	}()

	turn := s.turnCount + 1
	s.log.Info("turn started", "turn", turn, "participant", speaker.Name, "model", speaker.ModelID)
	s.publish(events.TurnStartedPayload{Turn: turn, Participant: speaker.Name, Model: speaker.ModelID})

	notes := s.loadNotes(speaker.Name)
	prompt := s.builder.Build(speaker, s.transcript, notes)

	// Requesting/Streaming: the network exchange runs in the dispatcher's
	// goroutine; this loop forwards deltas to observers as they arrive.
	var final *FinalResult
	index := 0
	for ev := range s.cfg.Dispatcher.Dispatch(turnCtx, speaker.ModelID, prompt) {
		switch {
		case ev.Err != nil:
			if turnCtx.Err() != nil {
				// Cancel or timeout: discard partial output, no commit.
				reason := "cancelled"
				if errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
					reason = "timeout"
				}
				s.publish(events.TurnAbortedPayload{
					Participant: speaker.Name,
					Reason:      reason,
					WillRetry:   s.willRetry(ctx, retried),
				})
				return false, nil
			}
			return false, ev.Err
		case ev.Final != nil:
			final = ev.Final
		default:
			s.publish(events.TurnStreamPayload{
				Phase:       events.StreamPhaseDelta,
				Participant: speaker.Name,
				Content:     ev.Delta,
				Index:       index,
			})
			index++
		}
	}
	if final == nil {
		if turnCtx.Err() != nil {
			reason := "cancelled"
			if errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
				reason = "timeout"
			}
			s.publish(events.TurnAbortedPayload{
				Participant: speaker.Name,
				Reason:      reason,
				WillRetry:   s.willRetry(ctx, retried),
			})
			return false, nil
		}
		return false, fmt.Errorf("stream ended without a final result")
	}

	// Parsing.
	commands := ParseCommands(final.Text)

	// Committing: the message lands before command effects, so a command
	// never affects the turn that produced it.
	displayText := final.Text
	if s.cfg.Conversation.StripCommands {
		displayText = StripCommands(final.Text, commands)
	}

	s.stateMu.Lock()
	s.turnCount++
	turnIndex := s.turnCount
	msg := NewTextMessage(RoleAssistant, speaker.Name, speaker.ModelID, displayText, turnIndex)
	s.transcript.Append(msg)
	s.stateMu.Unlock()
	s.persist(msg)
	s.appendMemory(speaker.Name, msg)

	s.publish(events.TurnCompletedPayload{
		Turn:         turnIndex,
		Participant:  speaker.Name,
		Content:      displayText,
		Commands:     len(commands),
		TokensInput:  final.TokensInput,
		TokensOutput: final.TokensOutput,
	})

	// Mutating: apply commands strictly left to right.
	for _, cmd := range commands {
		s.applyCommand(ctx, speaker, cmd)
	}

	return true, nil
}

// applyCommand executes one extracted command. Failures are informational,
// never fatal.
func (s *Scheduler) applyCommand(ctx context.Context, speaker *Participant, cmd Command) {
	switch cmd.Kind {
	case CmdAddAI:
		modelName, persona := cmd.Args[0], cmd.Args[1]
		resolved := modelName
		if s.cfg.Catalog != nil {
			var ok bool
			resolved, ok = s.cfg.Catalog.Resolve(modelName)
			if !ok {
				s.commandFailed(speaker, cmd, fmt.Sprintf("model %q is not available", modelName))
				return
			}
		}
		s.stateMu.Lock()
		name, err := s.roster.Add(resolved, persona)
		s.stateMu.Unlock()
		if err != nil {
			s.commandFailed(speaker, cmd, err.Error())
			return
		}
		s.log.Info("participant added", "name", name, "model", resolved, "by", speaker.Name)
		s.publish(events.RosterChangedPayload{
			Action:      "added",
			Name:        name,
			Model:       resolved,
			Persona:     persona,
			RequestedBy: speaker.Name,
			Roster:      s.roster.Names(),
		})

	case CmdRemoveAI:
		target := cmd.Args[0]
		s.stateMu.Lock()
		err := s.roster.Remove(target)
		s.stateMu.Unlock()
		if err != nil {
			s.commandFailed(speaker, cmd, err.Error())
			return
		}
		s.log.Info("participant removed", "name", target, "by", speaker.Name)
		s.publish(events.RosterChangedPayload{
			Action:      "removed",
			Name:        target,
			RequestedBy: speaker.Name,
			Roster:      s.roster.Names(),
		})

	case CmdMuteSelf:
		s.stateMu.Lock()
		err := s.roster.Mute(speaker.Name)
		s.stateMu.Unlock()
		if err != nil {
			s.commandFailed(speaker, cmd, err.Error())
			return
		}
		s.publish(events.RosterChangedPayload{
			Action:      "muted",
			Name:        speaker.Name,
			RequestedBy: speaker.Name,
			Roster:      s.roster.Names(),
		})

	case CmdListModels:
		var names []string
		if s.cfg.Catalog != nil {
			names = s.cfg.Catalog.CatalogNames()
		}
		s.publish(events.ModelListPayload{Requested: speaker.Name, Models: names})

	case CmdImage:
		if s.cfg.Media == nil {
			s.commandFailed(speaker, cmd, "image generation is not configured")
			return
		}
		path, err := s.cfg.Media.GenerateImage(ctx, cmd.Args[0])
		if err != nil {
			s.commandFailed(speaker, cmd, err.Error())
			return
		}
		s.stateMu.Lock()
		img := &Message{
			Role:      RoleUser,
			Parts:     []Part{TextPart(speaker.Name + " shared an image."), ImagePart(path, "")},
			TurnIndex: s.turnCount,
			Timestamp: time.Now().UTC(),
		}
		s.transcript.Append(img)
		s.stateMu.Unlock()
		s.persist(img)
		s.publish(events.MediaGeneratedPayload{
			Kind:        "image",
			Prompt:      cmd.Args[0],
			Path:        path,
			Participant: speaker.Name,
		})

	case CmdVideo:
		if s.cfg.Media == nil {
			s.commandFailed(speaker, cmd, "video generation is not configured")
			return
		}
		jobID, err := s.cfg.Media.GenerateVideo(ctx, cmd.Args[0])
		if err != nil {
			s.commandFailed(speaker, cmd, err.Error())
			return
		}
		s.publish(events.MediaGeneratedPayload{
			Kind:        "video",
			Prompt:      cmd.Args[0],
			JobID:       jobID,
			Participant: speaker.Name,
		})
	}
}

func (s *Scheduler) commandFailed(speaker *Participant, cmd Command, reason string) {
	s.log.Warn("command failed", "kind", cmd.Kind, "participant", speaker.Name, "reason", reason)
	s.publish(events.CommandFailedPayload{
		Kind:        string(cmd.Kind),
		Participant: speaker.Name,
		Reason:      reason,
	})
}

// applyExternal drains queued user-initiated roster mutations. Called only
// between turns.
func (s *Scheduler) applyExternal() {
	for {
		select {
		case req := <-s.external:
			req.reply <- s.applyExternalReq(req)
		default:
			return
		}
	}
}

func (s *Scheduler) applyExternalReq(req rosterRequest) error {
	switch req.action {
	case "add":
		resolved := req.modelID
		if s.cfg.Catalog != nil {
			var ok bool
			resolved, ok = s.cfg.Catalog.Resolve(req.modelID)
			if !ok {
				return fmt.Errorf("model %q is not available", req.modelID)
			}
		}
		s.stateMu.Lock()
		name, err := s.roster.Add(resolved, req.persona)
		s.stateMu.Unlock()
		if err != nil {
			return err
		}
		s.publish(events.RosterChangedPayload{
			Action:      "added",
			Name:        name,
			Model:       resolved,
			Persona:     req.persona,
			RequestedBy: "user",
			Roster:      s.roster.Names(),
		})
		return nil
	case "remove":
		s.stateMu.Lock()
		err := s.roster.Remove(req.name)
		s.stateMu.Unlock()
		if err != nil {
			return err
		}
		s.publish(events.RosterChangedPayload{
			Action:      "removed",
			Name:        req.name,
			RequestedBy: "user",
			Roster:      s.roster.Names(),
		})
		return nil
	case "mute":
		s.stateMu.Lock()
		err := s.roster.Mute(req.name)
		s.stateMu.Unlock()
		if err != nil {
			return err
		}
		s.publish(events.RosterChangedPayload{
			Action:      "muted",
			Name:        req.name,
			RequestedBy: "user",
			Roster:      s.roster.Names(),
		})
		return nil
	default:
		return fmt.Errorf("unknown roster request %q", req.action)
	}
}

// RequestAdd queues a user-initiated add, applied at the next turn boundary.
func (s *Scheduler) RequestAdd(modelID, persona string) error {
	return s.submit(rosterRequest{action: "add", modelID: modelID, persona: persona})
}

// RequestRemove queues a user-initiated removal.
func (s *Scheduler) RequestRemove(name string) error {
	return s.submit(rosterRequest{action: "remove", name: name})
}

// RequestMute queues a user-initiated mute.
func (s *Scheduler) RequestMute(name string) error {
	return s.submit(rosterRequest{action: "mute", name: name})
}

func (s *Scheduler) submit(req rosterRequest) error {
	req.reply = make(chan error, 1)
	select {
	case s.external <- req:
	case <-s.stopCh:
		return errors.New("conversation stopped")
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.stopCh:
		return errors.New("conversation stopped")
	}
}

// CancelTurn aborts the in-flight turn, if any. No partial output is
// committed; the cancel policy decides whether the same participant retries.
func (s *Scheduler) CancelTurn() {
	s.mu.Lock()
	cancel := s.cancelTurn
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stop ends the conversation after the current turn settles.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
	if s.cancelTurn != nil {
		s.cancelTurn()
	}
}

func (s *Scheduler) checkStop(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errors.New("stopped")
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Snapshot returns a copy of the roster and the turn count. Safe to call
// from any goroutine while the loop runs.
func (s *Scheduler) Snapshot() ([]Participant, int) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.roster.Snapshot(), s.turnCount
}

// TranscriptMessages returns the committed messages so far. Safe to call
// from any goroutine; the returned slice must not be mutated.
func (s *Scheduler) TranscriptMessages() []*Message {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.transcript.All()
}

// advance moves the turn cursor under the state lock.
func (s *Scheduler) advance() {
	s.stateMu.Lock()
	s.roster.Advance()
	s.stateMu.Unlock()
}

// willRetry reports whether an aborted turn will be attempted again: never
// once the run is stopping, otherwise per the cancel policy.
func (s *Scheduler) willRetry(ctx context.Context, retried bool) bool {
	if s.checkStop(ctx) != nil {
		return false
	}
	switch s.cfg.Conversation.CancelPolicy {
	case PolicyRetry:
		return true
	case PolicySkip:
		return false
	default:
		return !retried
	}
}

func (s *Scheduler) publish(payload events.EventPayload) {
	if s.cfg.Bus == nil {
		return
	}
	s.cfg.Bus.Publish(events.NewTypedEventWithConversation(events.SourceScheduler, payload, s.cfg.ConversationID))
}

func (s *Scheduler) persist(msg *Message) {
	if s.cfg.Transcripts == nil {
		return
	}
	if err := s.cfg.Transcripts.Append(msg); err != nil {
		s.log.Error("persist transcript entry", "error", err)
	}
}

func (s *Scheduler) appendMemory(name string, msg *Message) {
	if s.cfg.Memory == nil {
		return
	}
	if err := s.cfg.Memory.Append(name, msg); err != nil {
		s.log.Error("append participant memory", "participant", name, "error", err)
	}
}

func (s *Scheduler) loadNotes(name string) string {
	if s.cfg.Memory == nil {
		return ""
	}
	notes, err := s.cfg.Memory.Notes(name)
	if err != nil {
		s.log.Error("load participant memory", "participant", name, "error", err)
		return ""
	}
	return notes
}
