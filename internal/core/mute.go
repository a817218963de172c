package core

import (
	"sync"

	"github.com/justanothervoicechat/server-go/internal/domain"
)

// MuteMatrix keeps the two independent mute layers: a per-client
// muted-for-all flag and per-listener muted speaker sets. Both are orthogonal
// to call and channel state; an explicit global mute always wins.
type MuteMatrix struct {
	mu            sync.RWMutex
	mutedForAll   map[domain.Handle]bool
	mutedSpeakers map[domain.Handle]map[domain.Handle]struct{}
}

func NewMuteMatrix() *MuteMatrix {
	return &MuteMatrix{
		mutedForAll:   make(map[domain.Handle]bool),
		mutedSpeakers: make(map[domain.Handle]map[domain.Handle]struct{}),
	}
}

func (m *MuteMatrix) Add(handle domain.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mutedSpeakers[handle]; ok {
		return
	}
	m.mutedForAll[handle] = false
	m.mutedSpeakers[handle] = make(map[domain.Handle]struct{})
}

// Remove purges the handle both as a listener row and as a muted speaker in
// every other listener's set.
func (m *MuteMatrix) Remove(handle domain.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mutedForAll, handle)
	delete(m.mutedSpeakers, handle)
	for _, set := range m.mutedSpeakers {
		delete(set, handle)
	}
}

func (m *MuteMatrix) SetMutedForAll(handle domain.Handle, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mutedForAll[handle]; !ok {
		return domain.ErrNotFound
	}
	m.mutedForAll[handle] = muted
	return nil
}

func (m *MuteMatrix) IsMutedForAll(handle domain.Handle) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	muted, ok := m.mutedForAll[handle]
	if !ok {
		return false, domain.ErrNotFound
	}
	return muted, nil
}

func (m *MuteMatrix) SetSpeakerMuted(listener, speaker domain.Handle, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.mutedSpeakers[listener]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := m.mutedSpeakers[speaker]; !ok {
		return domain.ErrNotFound
	}
	if muted {
		set[speaker] = struct{}{}
	} else {
		delete(set, speaker)
	}
	return nil
}

func (m *MuteMatrix) IsSpeakerMuted(listener, speaker domain.Handle) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.mutedSpeakers[listener]
	if !ok {
		return false, domain.ErrNotFound
	}
	_, muted := set[speaker]
	return muted, nil
}

// IsAudible decides the mute layers only: false when the speaker muted
// itself for all or the listener muted the speaker locally. Self-pairs are
// the caller's concern, not enforced here.
func (m *MuteMatrix) IsAudible(listener, speaker domain.Handle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mutedForAll[speaker] {
		return false
	}
	set, ok := m.mutedSpeakers[listener]
	if !ok {
		return false
	}
	_, muted := set[speaker]
	return !muted
}
