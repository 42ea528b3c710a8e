package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	bus := NewEventBus()

	var typed, all []string
	bus.Subscribe("cart_cleared", func(e Event) error {
		typed = append(typed, e.SessionID)
		return nil
	})
	bus.Subscribe(Wildcard, func(e Event) error {
		all = append(all, e.Type)
		return nil
	})

	require.NoError(t, bus.Publish(Event{Type: "cart_cleared", SessionID: "s1"}))
	require.NoError(t, bus.Publish(Event{Type: "franchise_changed", SessionID: "s1"}))

	assert.Equal(t, []string{"s1"}, typed)
	assert.Equal(t, []string{"cart_cleared", "franchise_changed"}, all)
}

func TestEventBus_JoinsHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	called := 0

	bus.Subscribe("x", func(Event) error { return boom })
	bus.Subscribe("x", func(Event) error {
		called++
		return nil
	})

	err := bus.Publish(Event{Type: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, called)
}

func TestEvent_WithPayload(t *testing.T) {
	e := Event{Type: "x"}.WithPayload(map[string]int{"items": 2})
	assert.JSONEq(t, `{"items":2}`, string(e.Payload))
}
