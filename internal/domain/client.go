// Package domain contains entity metadata and shared value types, no logic
// beyond construction and validation.
package domain

const MaxNicknameLen = 36

// Handle is the opaque stable identifier of one client connection. It is
// assigned by the embedding game server and never reused while registered.
type Handle string

type ClientState string

const (
	StatePrepared  ClientState = "prepared"
	StateConnected ClientState = "connected"
)

// Client is the registry-owned session metadata. Spatial, mute, call and
// channel state live in their own structures keyed by Handle.
type Client struct {
	Handle     Handle      `json:"handle"`
	State      ClientState `json:"state"`
	Nickname   string      `json:"nickname,omitempty"`
	Microphone bool        `json:"microphone"`
	Speakers   bool        `json:"speakers"`
	Talking    bool        `json:"talking"`

	// HandshakeToken authenticates the media connection against the audio
	// transport. Reissued on every registration.
	HandshakeToken string `json:"-"`
}

func NewClient(handle Handle, token string) *Client {
	return &Client{
		Handle:         handle,
		State:          StatePrepared,
		Microphone:     true,
		Speakers:       true,
		HandshakeToken: token,
	}
}

func (c *Client) SetNickname(nickname string) error {
	if nickname == "" {
		return ErrNicknameEmpty
	}
	if len(nickname) > MaxNicknameLen {
		return ErrNicknameTooLong
	}
	c.Nickname = nickname
	return nil
}
