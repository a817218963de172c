package core

import (
	"sync"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// CallManager is the pairwise call table. The invariant "at most one
// non-idle call per handle" is enforced under this structure's own lock, so
// two overlapping StartCall races cannot both succeed.
type CallManager struct {
	mu    sync.Mutex
	calls map[domain.Handle]*domain.Call
}

func NewCallManager() *CallManager {
	return &CallManager{calls: make(map[domain.Handle]*domain.Call)}
}

// StartCall rings the callee. Boolean contract: self-calls and busy parties
// fail without an error, the command layer phrases the refusal.
func (c *CallManager) StartCall(caller, callee domain.Handle) bool {
	if caller == callee {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.calls[caller]; busy {
		return false
	}
	if _, busy := c.calls[callee]; busy {
		return false
	}
	call := &domain.Call{Caller: caller, Callee: callee, State: domain.CallRinging}
	c.calls[caller] = call
	c.calls[callee] = call
	log.Debug().Str("module", "core.call").Str("caller", string(caller)).Str("callee", string(callee)).Msg("call ringing")
	return true
}

// AnswerCall accepts or declines the ringing call targeting the callee.
// The caller handle is returned either way so the caller can be notified.
func (c *CallManager) AnswerCall(callee domain.Handle, accept bool) (bool, domain.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[callee]
	if !ok || call.State != domain.CallRinging || call.Callee != callee {
		return false, ""
	}
	if accept {
		call.State = domain.CallActive
		log.Debug().Str("module", "core.call").Str("caller", string(call.Caller)).Str("callee", string(callee)).Msg("call active")
	} else {
		c.remove(call)
		log.Debug().Str("module", "core.call").Str("caller", string(call.Caller)).Str("callee", string(callee)).Msg("call declined")
	}
	return true, call.Caller
}

// HangupCall ends a ringing or active call from either side and returns the
// other party.
func (c *CallManager) HangupCall(handle domain.Handle) (bool, domain.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[handle]
	if !ok {
		return false, ""
	}
	c.remove(call)
	other := call.Other(handle)
	log.Debug().Str("module", "core.call").Str("handle", string(handle)).Str("other", string(other)).Msg("call ended")
	return true, other
}

// CallOf returns the non-idle call the handle takes part in, if any.
func (c *CallManager) CallOf(handle domain.Handle) (domain.Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[handle]
	if !ok {
		return domain.Call{}, false
	}
	return *call, true
}

// Snapshot lists every non-idle call once.
func (c *CallManager) Snapshot() []domain.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Call, 0, len(c.calls)/2)
	for handle, call := range c.calls {
		if handle == call.Caller {
			out = append(out, *call)
		}
	}
	return out
}

func (c *CallManager) remove(call *domain.Call) {
	delete(c.calls, call.Caller)
	delete(c.calls, call.Callee)
}
