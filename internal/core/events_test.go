package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusRegistrationOrder(t *testing.T) {
	b := NewBus()
	var order []int
	b.Subscribe(EventTalkStarted, func(Event) { order = append(order, 1) })
	b.Subscribe(EventTalkStarted, func(Event) { order = append(order, 2) })
	b.Subscribe(EventTalkStarted, func(Event) { order = append(order, 3) })

	b.Emit(Event{Kind: EventTalkStarted, Handle: "a"})
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestBusKindIsolation(t *testing.T) {
	b := NewBus()
	var started, stopped int
	b.Subscribe(EventTalkStarted, func(Event) { started++ })
	b.Subscribe(EventTalkStopped, func(Event) { stopped++ })

	b.Emit(Event{Kind: EventTalkStarted})
	b.Emit(Event{Kind: EventTalkStarted})
	require.Equal(t, 2, started)
	require.Equal(t, 0, stopped)

	// Emitting a kind with no subscribers is a no-op.
	b.Emit(Event{Kind: EventServerStarted})
}

func TestBusPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := NewBus()
	var reached bool
	b.Subscribe(EventClientPrepared, func(Event) { panic("boom") })
	b.Subscribe(EventClientPrepared, func(Event) { reached = true })

	require.NotPanics(t, func() {
		b.Emit(Event{Kind: EventClientPrepared, Handle: "a"})
	})
	require.True(t, reached, "later handlers still run")
}

func TestBusPayloadDelivered(t *testing.T) {
	b := NewBus()
	var got Event
	b.Subscribe(EventClientDisconnected, func(ev Event) { got = ev })

	b.Emit(Event{Kind: EventClientDisconnected, Handle: "a", HandshakeURL: "http://h/tok"})
	require.Equal(t, EventClientDisconnected, got.Kind)
	require.Equal(t, "http://h/tok", got.HandshakeURL)
}
