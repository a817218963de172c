package domain

type CallState string

const (
	CallIdle    CallState = "idle"
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
)

// Call is a point-to-point call session. A connected handle takes part in at
// most one non-idle call at a time.
type Call struct {
	Caller Handle    `json:"caller"`
	Callee Handle    `json:"callee"`
	State  CallState `json:"state"`
}

// Other returns the opposite party of h, assuming h is one of the two.
func (c Call) Other(h Handle) Handle {
	if c.Caller == h {
		return c.Callee
	}
	return c.Caller
}
