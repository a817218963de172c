package core

import (
	"sync"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
)

type EventKind string

const (
	EventClientPrepared     EventKind = "client_prepared"
	EventClientConnected    EventKind = "client_connected"
	EventClientDisconnected EventKind = "client_disconnected"
	EventTalkStarted        EventKind = "talk_started"
	EventTalkStopped        EventKind = "talk_stopped"
	EventMicrophoneChanged  EventKind = "microphone_changed"
	EventSpeakersChanged    EventKind = "speakers_changed"
	EventServerStarted      EventKind = "server_started"
	EventServerStopping     EventKind = "server_stopping"
	EventLogMessage         EventKind = "log_message"
)

// Event carries the payload of one bus emission. Unused fields stay zero.
type Event struct {
	Kind         EventKind
	Handle       domain.Handle
	HandshakeURL string
	Enabled      bool
	Level        string
	Message      string
}

type Handler func(Event)

// Bus delivers events synchronously to subscribers in registration order.
// Emission is fire-and-forget for the caller: a panicking handler is
// recovered and logged, never propagated into the mutation that emitted.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	hs := b.handlers[ev.Kind]
	b.mu.RUnlock()

	for _, h := range hs {
		b.invoke(h, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "core.events").Str("kind", string(ev.Kind)).Any("panic", r).Msg("event handler panicked")
		}
	}()
	h(ev)
}
