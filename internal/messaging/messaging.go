// Package messaging defines the request/response contract between the editor
// core and its cross-context collaborators (sidebar, background service). The
// core depends only on the envelope shape and the Sender interface; transports
// live outside this module. LocalBus is an in-process implementation used by
// the CLI and tests.
package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/rs/zerolog"
)

// Envelope is the wire shape of a cross-context message.
type Envelope struct {
	Type            string          `json:"type"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	ExpectsResponse bool            `json:"expectsResponse"`
	RequestID       string          `json:"requestId,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// Sender sends a message and, when the message expects one, returns the
// response envelope.
type Sender interface {
	Send(ctx context.Context, msg Envelope) (*Envelope, error)
}

// Handler processes an incoming message and optionally returns a response.
type Handler func(ctx context.Context, msg Envelope) (*Envelope, error)

// LocalBus routes envelopes to handlers registered per destination.
type LocalBus struct {
	logger   zerolog.Logger
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewLocalBus creates an in-process message bus.
func NewLocalBus(logger zerolog.Logger) *LocalBus {
	return &LocalBus{
		logger:   logger.With().Str("component", "LocalBus").Logger(),
		handlers: make(map[string]Handler),
	}
}

// Register installs the handler for a destination, replacing any previous one.
func (b *LocalBus) Register(destination string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[destination] = handler
}

// Send delivers the envelope to the handler registered for msg.To.
func (b *LocalBus) Send(ctx context.Context, msg Envelope) (*Envelope, error) {
	b.mu.RLock()
	handler, ok := b.handlers[msg.To]
	b.mu.RUnlock()

	if !ok {
		return nil, common.NewError("no handler registered for destination %q", msg.To)
	}

	b.logger.Debug().
		Str("type", msg.Type).
		Str("from", msg.From).
		Str("to", msg.To).
		Bool("expects_response", msg.ExpectsResponse).
		Msg("Delivering message")

	resp, err := handler(ctx, msg)
	if err != nil {
		return nil, common.WrapErrorf(err, "handler for %q failed", msg.To)
	}
	if !msg.ExpectsResponse {
		return nil, nil
	}
	return resp, nil
}
