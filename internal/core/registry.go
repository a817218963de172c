package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// ClientRegistry owns voice session existence. Every other structure only
// indexes by Handle and never extends a session's lifetime.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[domain.Handle]*domain.Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[domain.Handle]*domain.Client)}
}

// Register creates a prepared session with a fresh handshake token.
func (r *ClientRegistry) Register(handle domain.Handle) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[handle]; ok {
		return domain.Client{}, domain.ErrAlreadyRegistered
	}
	c := domain.NewClient(handle, uuid.NewString())
	r.clients[handle] = c
	log.Info().Str("module", "core.registry").Str("handle", string(handle)).Msg("client registered")
	return *c, nil
}

func (r *ClientRegistry) ConfirmConnected(handle domain.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return domain.ErrNotFound
	}
	c.State = domain.StateConnected
	log.Info().Str("module", "core.registry").Str("handle", string(handle)).Msg("client connected")
	return nil
}

func (r *ClientRegistry) Unregister(handle domain.Handle) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return domain.Client{}, domain.ErrNotFound
	}
	delete(r.clients, handle)
	log.Info().Str("module", "core.registry").Str("handle", string(handle)).Msg("client unregistered")
	return *c, nil
}

// Get returns a copy; mutating it does not touch registry state.
func (r *ClientRegistry) Get(handle domain.Handle) (domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[handle]
	if !ok {
		return domain.Client{}, domain.ErrNotFound
	}
	return *c, nil
}

// All returns a snapshot taken at call time.
func (r *ClientRegistry) All() []domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, *c)
	}
	return out
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) SetNickname(handle domain.Handle, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return domain.ErrNotFound
	}
	return c.SetNickname(nickname)
}

// SetTalking flips the talking flag and reports whether it changed, so the
// caller emits talk events only on edges.
func (r *ClientRegistry) SetTalking(handle domain.Handle, talking bool) (changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.Talking == talking {
		return false, nil
	}
	c.Talking = talking
	return true, nil
}

func (r *ClientRegistry) SetMicrophone(handle domain.Handle, enabled bool) (changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.Microphone == enabled {
		return false, nil
	}
	c.Microphone = enabled
	return true, nil
}

func (r *ClientRegistry) SetSpeakers(handle domain.Handle, enabled bool) (changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[handle]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.Speakers == enabled {
		return false, nil
	}
	c.Speakers = enabled
	return true, nil
}
