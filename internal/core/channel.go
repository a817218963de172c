package core

import (
	"sync"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type channel struct {
	// members maps handle to the active flag: enrolled members may be
	// tuned in without transmitting.
	members map[domain.Handle]bool
}

// ChannelRegistry keeps radio channel membership. Membership is
// single-valued per handle; empty channels are destroyed.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[domain.ChannelName]*channel
	byMember map[domain.Handle]domain.ChannelName
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		channels: make(map[domain.ChannelName]*channel),
		byMember: make(map[domain.Handle]domain.ChannelName),
	}
}

// Join adds the handle to the channel (creating it on demand, active flag
// off) and reports the channel it implicitly left, if any.
func (r *ChannelRegistry) Join(handle domain.Handle, name domain.ChannelName) (previous domain.ChannelName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byMember[handle]; ok {
		if prev == name {
			return ""
		}
		previous = prev
		r.removeLocked(handle, prev)
	}

	ch, ok := r.channels[name]
	if !ok {
		ch = &channel{members: make(map[domain.Handle]bool)}
		r.channels[name] = ch
		log.Info().Str("module", "core.channel").Str("channel", string(name)).Msg("channel created")
	}
	ch.members[handle] = false
	r.byMember[handle] = name
	log.Info().Str("module", "core.channel").Str("handle", string(handle)).Str("channel", string(name)).Msg("member joined")
	return previous
}

// Leave removes the handle from its current channel.
func (r *ChannelRegistry) Leave(handle domain.Handle) (domain.ChannelName, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.byMember[handle]
	if !ok {
		return "", domain.ErrNotFound
	}
	r.removeLocked(handle, name)
	log.Info().Str("module", "core.channel").Str("handle", string(handle)).Str("channel", string(name)).Msg("member left")
	return name, nil
}

// SetActive toggles participation in the channel's audio without leaving it.
func (r *ChannelRegistry) SetActive(handle domain.Handle, name domain.ChannelName, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[name]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := ch.members[handle]; !ok {
		return domain.ErrNotFound
	}
	ch.members[handle] = active
	return nil
}

func (r *ChannelRegistry) IsActive(handle domain.Handle, name domain.ChannelName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return false
	}
	return ch.members[handle]
}

// MembersOf returns a snapshot of the channel's members, empty when the
// channel does not exist.
func (r *ChannelRegistry) MembersOf(name domain.ChannelName) []domain.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return nil
	}
	return lo.Keys(ch.members)
}

func (r *ChannelRegistry) ActiveMembersOf(name domain.ChannelName) []domain.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return nil
	}
	out := make([]domain.Handle, 0, len(ch.members))
	for handle, active := range ch.members {
		if active {
			out = append(out, handle)
		}
	}
	return out
}

// ChannelOf returns the channel the handle is enrolled in, if any.
func (r *ChannelRegistry) ChannelOf(handle domain.Handle) (domain.ChannelName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byMember[handle]
	return name, ok
}

type ChannelInfo struct {
	Name    domain.ChannelName `json:"name"`
	Members int                `json:"member_count"`
	Active  int                `json:"active_count"`
}

func (r *ChannelRegistry) Snapshot() []ChannelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChannelInfo, 0, len(r.channels))
	for name, ch := range r.channels {
		active := lo.CountValues(lo.Values(ch.members))[true]
		out = append(out, ChannelInfo{Name: name, Members: len(ch.members), Active: active})
	}
	return out
}

func (r *ChannelRegistry) removeLocked(handle domain.Handle, name domain.ChannelName) {
	delete(r.byMember, handle)
	ch, ok := r.channels[name]
	if !ok {
		return
	}
	delete(ch.members, handle)
	if len(ch.members) == 0 {
		delete(r.channels, name)
		log.Info().Str("module", "core.channel").Str("channel", string(name)).Msg("empty channel destroyed")
	}
}
