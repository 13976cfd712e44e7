package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/colloquy/internal/models"
)

const (
	maxDispatchRetries   = 3
	initialRetryBackoff  = 2 * time.Second
	retryBackoffMultiple = 2
)

// FinalResult carries the completed response for a turn.
type FinalResult struct {
	Text         string
	TokensInput  int
	TokensOutput int
}

// StreamEvent is one element of a turn's event sequence: a partial delta, a
// terminal final result, or a terminal error. Exactly one of the terminal
// fields is set on the last event.
type StreamEvent struct {
	Delta string
	Final *FinalResult
	Err   error
}

// ModelResolver resolves a model name to a chat model. Satisfied by
// *models.Registry.
type ModelResolver interface {
	Get(ctx context.Context, name string) (model.ToolCallingChatModel, error)
}

// Dispatcher issues one streaming model request per turn, with bounded
// retries for transient failures.
type Dispatcher struct {
	Resolver ModelResolver
	Logger   *slog.Logger

	// Backoff overrides the retry backoff schedule; nil uses the default
	// exponential schedule.
	Backoff func(attempt int) time.Duration
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	if d.Backoff != nil {
		return d.Backoff(attempt)
	}
	delay := initialRetryBackoff
	for i := 0; i < attempt; i++ {
		delay *= retryBackoffMultiple
	}
	return delay
}

// Dispatch starts a streaming request and returns its event channel. The
// channel carries zero or more delta events followed by exactly one terminal
// event (Final or Err), then closes. Cancelling ctx stops the stream
// promptly; no events are emitted after the terminal one.
//
// Transient failures are retried with backoff, but only while no delta has
// been emitted yet: once partial output reached an observer, a retry would
// duplicate it, so the error propagates instead.
func (d *Dispatcher) Dispatch(ctx context.Context, modelName string, messages []*schema.Message) <-chan StreamEvent {
	events := make(chan StreamEvent, 64)

	go func() {
		defer close(events)

		chatModel, err := d.Resolver.Get(ctx, modelName)
		if err != nil {
			d.send(ctx, events, StreamEvent{Err: err})
			return
		}

		for attempt := 0; ; attempt++ {
			delivered, err := d.streamOnce(ctx, chatModel, messages, events)
			if err == nil {
				return
			}

			retryable := models.IsTransient(err) && !delivered && attempt < maxDispatchRetries
			if !retryable {
				d.send(ctx, events, StreamEvent{Err: models.HandleError(err)})
				return
			}

			delay := d.backoff(attempt)
			d.logger().Warn("transient model failure, retrying",
				"model", modelName, "attempt", attempt+1, "backoff", delay, "error", err)

			select {
			case <-ctx.Done():
				d.send(ctx, events, StreamEvent{Err: ctx.Err()})
				return
			case <-time.After(delay):
			}
		}
	}()

	return events
}

// streamOnce runs a single streaming attempt. Returns whether any delta was
// delivered, and a nil error once the terminal Final event has been sent.
func (d *Dispatcher) streamOnce(ctx context.Context, chatModel model.ToolCallingChatModel, messages []*schema.Message, events chan<- StreamEvent) (delivered bool, err error) {
	reader, err := chatModel.Stream(ctx, messages)
	if err != nil {
		return false, err
	}
	defer reader.Close()

	var content strings.Builder
	var tokensIn, tokensOut int

	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return delivered, err
		}
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			if !d.send(ctx, events, StreamEvent{Delta: chunk.Content}) {
				return delivered, ctx.Err()
			}
			delivered = true
		}
		if chunk.ResponseMeta != nil && chunk.ResponseMeta.Usage != nil {
			if chunk.ResponseMeta.Usage.PromptTokens > 0 {
				tokensIn = chunk.ResponseMeta.Usage.PromptTokens
			}
			if chunk.ResponseMeta.Usage.CompletionTokens > 0 {
				tokensOut = chunk.ResponseMeta.Usage.CompletionTokens
			}
		}
	}

	d.send(ctx, events, StreamEvent{Final: &FinalResult{
		Text:         content.String(),
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
	}})
	return delivered, nil
}

// send delivers an event unless the context is cancelled. Reports success.
func (d *Dispatcher) send(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
