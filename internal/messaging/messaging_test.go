package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToRegisteredHandler(t *testing.T) {
	bus := NewLocalBus(zerolog.Nop())

	var received Envelope
	bus.Register("sidebar", func(ctx context.Context, msg Envelope) (*Envelope, error) {
		received = msg
		return nil, nil
	})

	payload, err := json.Marshal(map[string]string{"selector": ".title"})
	require.NoError(t, err)

	resp, err := bus.Send(context.Background(), Envelope{
		Type:    "element-selected",
		From:    "content",
		To:      "sidebar",
		Payload: payload,
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, "element-selected", received.Type)
	assert.JSONEq(t, `{"selector": ".title"}`, string(received.Payload))
}

func TestLocalBusNoHandlerErrors(t *testing.T) {
	bus := NewLocalBus(zerolog.Nop())

	_, err := bus.Send(context.Background(), Envelope{Type: "ping", To: "background"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "background")
}

func TestLocalBusReturnsResponseOnlyWhenExpected(t *testing.T) {
	bus := NewLocalBus(zerolog.Nop())
	bus.Register("background", func(ctx context.Context, msg Envelope) (*Envelope, error) {
		return &Envelope{Type: "pong", From: "background", To: msg.From, RequestID: msg.RequestID}, nil
	})

	resp, err := bus.Send(context.Background(), Envelope{
		Type: "ping", From: "content", To: "background",
		ExpectsResponse: true, RequestID: "req-1",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "pong", resp.Type)
	assert.Equal(t, "req-1", resp.RequestID)

	resp, err = bus.Send(context.Background(), Envelope{
		Type: "ping", From: "content", To: "background",
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestLocalBusHandlerErrorIsWrapped(t *testing.T) {
	bus := NewLocalBus(zerolog.Nop())
	bus.Register("sidebar", func(ctx context.Context, msg Envelope) (*Envelope, error) {
		return nil, assert.AnError
	})

	_, err := bus.Send(context.Background(), Envelope{Type: "x", To: "sidebar"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLocalBusRegisterReplacesHandler(t *testing.T) {
	bus := NewLocalBus(zerolog.Nop())

	bus.Register("sidebar", func(ctx context.Context, msg Envelope) (*Envelope, error) {
		t.Fatal("replaced handler should not run")
		return nil, nil
	})
	called := false
	bus.Register("sidebar", func(ctx context.Context, msg Envelope) (*Envelope, error) {
		called = true
		return nil, nil
	})

	_, err := bus.Send(context.Background(), Envelope{Type: "x", To: "sidebar"})
	require.NoError(t, err)
	assert.True(t, called)
}
