package gamews

import (
	"encoding/json"
	"fmt"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// resultMsg is the reply to one command. Ok and Error carry the engine's
// verdict; Data holds operation-specific out-values (the other call party,
// the left channel).
type resultMsg struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func (ctl *Controller) reply(c *GameConn, op string, err error, data any) {
	msg := resultMsg{Type: "result", Op: op, Ok: err == nil, Data: data}
	if err != nil {
		msg.Error = err.Error()
	}
	ctl.sendJSON(c, msg)
}

func (ctl *Controller) handleCommand(c *GameConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "gamews").Msg("bad json")
		return
	}

	switch env.Type {
	case "register":
		ctl.handleRegister(c, data)
	case "connected":
		ctl.handleConnected(c, data)
	case "unregister":
		ctl.handleUnregister(c, data)
	case "position":
		ctl.handlePosition(c, data)
	case "positions":
		ctl.handlePositions(c, data)
	case "range":
		ctl.handleRange(c, data)
	case "nickname":
		ctl.handleNickname(c, data)
	case "mute":
		ctl.handleMute(c, data)
	case "mute_speaker":
		ctl.handleMuteSpeaker(c, data)
	case "call":
		ctl.handleCall(c, data)
	case "answer":
		ctl.handleAnswer(c, data)
	case "hangup":
		ctl.handleHangup(c, data)
	case "radio_join":
		ctl.handleRadioJoin(c, data)
	case "radio_leave":
		ctl.handleRadioLeave(c, data)
	case "radio_active":
		ctl.handleRadioActive(c, data)
	case "talking":
		ctl.handleTalking(c, data)
	case "microphone":
		ctl.handleMicrophone(c, data)
	case "speakers":
		ctl.handleSpeakers(c, data)
	case "ping":
		ctl.sendJSON(c, map[string]string{"type": "pong"})
	default:
		log.Warn().Str("module", "gamews").Str("type", env.Type).Msg("unknown command")
	}
}

type handlePayload struct {
	Handle domain.Handle `json:"handle"`
}

func decode[T any](c *Controller, conn *GameConn, op string, data []byte) (T, bool) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		c.reply(conn, op, fmt.Errorf("%w: bad payload", domain.ErrInvalidArgument), nil)
		return p, false
	}
	return p, true
}

func (ctl *Controller) handleRegister(c *GameConn, data []byte) {
	p, ok := decode[handlePayload](ctl, c, "register", data)
	if !ok {
		return
	}
	_, err := ctl.Orch.Register(p.Handle)
	ctl.reply(c, "register", err, nil)
}

func (ctl *Controller) handleConnected(c *GameConn, data []byte) {
	p, ok := decode[handlePayload](ctl, c, "connected", data)
	if !ok {
		return
	}
	ctl.reply(c, "connected", ctl.Orch.ConfirmConnected(p.Handle), nil)
}

func (ctl *Controller) handleUnregister(c *GameConn, data []byte) {
	p, ok := decode[handlePayload](ctl, c, "unregister", data)
	if !ok {
		return
	}
	res, err := ctl.Orch.Unregister(p.Handle)
	ctl.callLimit.Forget(p.Handle)
	var out any
	if err == nil {
		out = map[string]string{
			"call_peer":    string(res.CallPeer),
			"left_channel": string(res.LeftChannel),
		}
	}
	ctl.reply(c, "unregister", err, out)
}

func (ctl *Controller) handlePosition(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle   domain.Handle  `json:"handle"`
		Position domain.Vector3 `json:"position"`
		Rotation float64        `json:"rotation"`
	}](ctl, c, "position", data)
	if !ok {
		return
	}
	// High-frequency path: apply without replying so ticks never saturate
	// the send buffer.
	if err := ctl.Orch.Spatial.UpdatePosition(p.Handle, p.Position, p.Rotation); err != nil {
		log.Debug().Str("module", "gamews").Str("handle", string(p.Handle)).Msg("position for unknown handle")
	}
}

func (ctl *Controller) handlePositions(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Updates []domain.PositionUpdate `json:"updates"`
	}](ctl, c, "positions", data)
	if !ok {
		return
	}
	if err := ctl.Orch.Spatial.UpdatePositions(p.Updates); err != nil {
		log.Debug().Err(err).Str("module", "gamews").Msg("position batch had unknown handles")
	}
}

func (ctl *Controller) handleRange(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle domain.Handle `json:"handle"`
		Range  float64       `json:"range"`
	}](ctl, c, "range", data)
	if !ok {
		return
	}
	ctl.reply(c, "range", ctl.Orch.Spatial.SetVoiceRange(p.Handle, p.Range), nil)
}

func (ctl *Controller) handleNickname(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle   domain.Handle `json:"handle"`
		Nickname string        `json:"nickname"`
	}](ctl, c, "nickname", data)
	if !ok {
		return
	}
	ctl.reply(c, "nickname", ctl.Orch.SetNickname(p.Handle, p.Nickname), nil)
}

func (ctl *Controller) handleMute(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle domain.Handle `json:"handle"`
		Muted  bool          `json:"muted"`
	}](ctl, c, "mute", data)
	if !ok {
		return
	}
	ctl.reply(c, "mute", ctl.Orch.SetMutedForAll(p.Handle, p.Muted), nil)
}

func (ctl *Controller) handleMuteSpeaker(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Listener domain.Handle `json:"listener"`
		Speaker  domain.Handle `json:"speaker"`
		Muted    bool          `json:"muted"`
	}](ctl, c, "mute_speaker", data)
	if !ok {
		return
	}
	ctl.reply(c, "mute_speaker", ctl.Orch.SetSpeakerMuted(p.Listener, p.Speaker, p.Muted), nil)
}

func (ctl *Controller) handleCall(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Caller domain.Handle `json:"caller"`
		Callee domain.Handle `json:"callee"`
	}](ctl, c, "call", data)
	if !ok {
		return
	}
	if !ctl.callLimit.Allow(p.Caller) {
		ctl.reply(c, "call", fmt.Errorf("%w: call rate exceeded", domain.ErrConflict), nil)
		return
	}
	ctl.reply(c, "call", ctl.Orch.StartCall(p.Caller, p.Callee), nil)
}

func (ctl *Controller) handleAnswer(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle domain.Handle `json:"handle"`
		Accept bool          `json:"accept"`
	}](ctl, c, "answer", data)
	if !ok {
		return
	}
	caller, err := ctl.Orch.AnswerCall(p.Handle, p.Accept)
	var out any
	if err == nil {
		out = map[string]string{"caller": string(caller)}
	}
	ctl.reply(c, "answer", err, out)
}

func (ctl *Controller) handleHangup(c *GameConn, data []byte) {
	p, ok := decode[handlePayload](ctl, c, "hangup", data)
	if !ok {
		return
	}
	other, err := ctl.Orch.HangupCall(p.Handle)
	var out any
	if err == nil {
		out = map[string]string{"other": string(other)}
	}
	ctl.reply(c, "hangup", err, out)
}

func (ctl *Controller) handleRadioJoin(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle  domain.Handle      `json:"handle"`
		Channel domain.ChannelName `json:"channel"`
	}](ctl, c, "radio_join", data)
	if !ok {
		return
	}
	if p.Channel == "" {
		ctl.reply(c, "radio_join", fmt.Errorf("%w: empty channel", domain.ErrInvalidArgument), nil)
		return
	}
	ctl.reply(c, "radio_join", ctl.Orch.JoinChannel(p.Handle, p.Channel), nil)
}

func (ctl *Controller) handleRadioLeave(c *GameConn, data []byte) {
	p, ok := decode[handlePayload](ctl, c, "radio_leave", data)
	if !ok {
		return
	}
	left, err := ctl.Orch.LeaveChannel(p.Handle)
	var out any
	if err == nil {
		out = map[string]string{"channel": string(left)}
	}
	ctl.reply(c, "radio_leave", err, out)
}

func (ctl *Controller) handleRadioActive(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle  domain.Handle      `json:"handle"`
		Channel domain.ChannelName `json:"channel"`
		Active  bool               `json:"active"`
	}](ctl, c, "radio_active", data)
	if !ok {
		return
	}
	ctl.reply(c, "radio_active", ctl.Orch.SetRadioActive(p.Handle, p.Channel, p.Active), nil)
}

func (ctl *Controller) handleTalking(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle  domain.Handle `json:"handle"`
		Talking bool          `json:"talking"`
	}](ctl, c, "talking", data)
	if !ok {
		return
	}
	if err := ctl.Orch.SetTalking(p.Handle, p.Talking); err != nil {
		log.Debug().Str("module", "gamews").Str("handle", string(p.Handle)).Msg("talking for unknown handle")
	}
}

func (ctl *Controller) handleMicrophone(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle  domain.Handle `json:"handle"`
		Enabled bool          `json:"enabled"`
	}](ctl, c, "microphone", data)
	if !ok {
		return
	}
	ctl.reply(c, "microphone", ctl.Orch.SetMicrophoneEnabled(p.Handle, p.Enabled), nil)
}

func (ctl *Controller) handleSpeakers(c *GameConn, data []byte) {
	p, ok := decode[struct {
		Handle  domain.Handle `json:"handle"`
		Enabled bool          `json:"enabled"`
	}](ctl, c, "speakers", data)
	if !ok {
		return
	}
	ctl.reply(c, "speakers", ctl.Orch.SetSpeakersEnabled(p.Handle, p.Enabled), nil)
}
