package app

import (
	"fmt"
	"sync"

	"github.com/justanothervoicechat/server-go/internal/core"
	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// phoneOffset is the relative position installed for call and radio
// partners: zero offset in the listener's frame, so the speaker is heard
// co-located regardless of real distance.
var phoneOffset = domain.Vector3{}

// Orchestrator owns the engine structures and sequences every
// cross-structure mutation under one serialization boundary, so cascades
// like unregister cleanup are never observed half-done. Single-structure
// operations delegate straight to the structure's own lock.
type Orchestrator struct {
	Clients  *core.ClientRegistry
	Spatial  *core.SpatialModel
	Mutes    *core.MuteMatrix
	Calls    *core.CallManager
	Channels *core.ChannelRegistry
	Bus      *core.Bus

	mu            sync.Mutex
	mode          domain.ServerMode
	handshakeBase string

	settingsMu sync.RWMutex
	settings   PlaybackSettings
}

type Config struct {
	Mode              domain.ServerMode
	HandshakeBase     string
	DefaultVoiceRange float64
	Settings          PlaybackSettings
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		Clients:       core.NewClientRegistry(),
		Spatial:       core.NewSpatialModel(cfg.DefaultVoiceRange),
		Mutes:         core.NewMuteMatrix(),
		Calls:         core.NewCallManager(),
		Channels:      core.NewChannelRegistry(),
		Bus:           core.NewBus(),
		mode:          cfg.Mode,
		handshakeBase: cfg.HandshakeBase,
		settings:      cfg.Settings,
	}
	if o.mode == "" {
		o.mode = domain.ModeExclusive
	}
	o.settings.normalize()
	return o
}

// Start announces the engine to subscribers. In shared mode the host process
// owns the backend lifecycle and this operation is unsupported.
func (o *Orchestrator) Start() error {
	if o.mode == domain.ModeShared {
		return domain.ErrUnsupported
	}
	o.Bus.Emit(core.Event{Kind: core.EventServerStarted})
	return nil
}

func (o *Orchestrator) Stop() error {
	if o.mode == domain.ModeShared {
		return domain.ErrUnsupported
	}
	o.Bus.Emit(core.Event{Kind: core.EventServerStopping})
	return nil
}

func (o *Orchestrator) Mode() domain.ServerMode { return o.mode }

// Register creates the session, enrolls it in the spatial and mute
// structures and emits ClientPrepared with the handshake URL the transport
// needs to bind a media session.
func (o *Orchestrator) Register(handle domain.Handle) (domain.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	client, err := o.Clients.Register(handle)
	if err != nil {
		return domain.Client{}, err
	}
	o.Spatial.Add(handle)
	o.Mutes.Add(handle)

	o.Bus.Emit(core.Event{
		Kind:         core.EventClientPrepared,
		Handle:       handle,
		HandshakeURL: o.handshakeURL(client.HandshakeToken),
	})
	return client, nil
}

// ConfirmConnected marks the transport-confirmed session as connected.
func (o *Orchestrator) ConfirmConnected(handle domain.Handle) error {
	if err := o.Clients.ConfirmConnected(handle); err != nil {
		return err
	}
	o.Bus.Emit(core.Event{Kind: core.EventClientConnected, Handle: handle})
	return nil
}

// UnregisterResult reports the cascade side effects so the command layer can
// notify affected parties.
type UnregisterResult struct {
	CallPeer    domain.Handle
	LeftChannel domain.ChannelName
}

// Unregister destroys the session and atomically clears every reference to
// it: the call it took part in ends as if the leaving party hung up, channel
// membership is dropped, and all mute and override entries naming the handle
// as key or value are purged.
func (o *Orchestrator) Unregister(handle domain.Handle) (UnregisterResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.Clients.Get(handle); err != nil {
		return UnregisterResult{}, err
	}

	var res UnregisterResult
	if ended, peer := o.Calls.HangupCall(handle); ended {
		res.CallPeer = peer
	}
	if prev, ok := o.Channels.ChannelOf(handle); ok {
		o.clearRadioOverrides(handle, prev)
		if _, err := o.Channels.Leave(handle); err == nil {
			res.LeftChannel = prev
		}
	}
	// Remove purges the handle's own rows and its entries in every other
	// client's override and mute sets, covering the call reset too.
	o.Spatial.Remove(handle)
	o.Mutes.Remove(handle)

	client, err := o.Clients.Unregister(handle)
	if err != nil {
		return UnregisterResult{}, err
	}

	o.Bus.Emit(core.Event{
		Kind:         core.EventClientDisconnected,
		Handle:       handle,
		HandshakeURL: o.handshakeURL(client.HandshakeToken),
	})
	return res, nil
}

// StartCall rings callee. ErrInvalidArgument for self-calls, ErrNotFound for
// unregistered parties, ErrConflict when either side is already in a call.
func (o *Orchestrator) StartCall(caller, callee domain.Handle) error {
	if caller == callee {
		return fmt.Errorf("%w: self call", domain.ErrInvalidArgument)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.Clients.Get(caller); err != nil {
		return err
	}
	if _, err := o.Clients.Get(callee); err != nil {
		return err
	}
	if !o.Calls.StartCall(caller, callee) {
		return fmt.Errorf("%w: a party is not idle", domain.ErrConflict)
	}
	return nil
}

// AnswerCall resolves the ringing call targeting callee. On accept both
// parties get reciprocal zero-offset overrides so call audio is
// distance-independent; on decline the call is removed. The caller handle is
// returned either way.
func (o *Orchestrator) AnswerCall(callee domain.Handle, accept bool) (domain.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ok, caller := o.Calls.AnswerCall(callee, accept)
	if !ok {
		return "", domain.ErrNotFound
	}
	if accept {
		o.installPairOverrides(caller, callee)
	} else {
		o.resetPairOverrides(caller, callee)
	}
	return caller, nil
}

// HangupCall ends the call from either party and releases the call-only
// overrides without touching independently-set mutes.
func (o *Orchestrator) HangupCall(handle domain.Handle) (domain.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ok, other := o.Calls.HangupCall(handle)
	if !ok {
		return "", domain.ErrNotFound
	}
	o.resetPairOverrides(handle, other)
	return other, nil
}

// JoinChannel enrolls the handle (inactive) in the named channel, leaving
// and cleaning up the previous one first.
func (o *Orchestrator) JoinChannel(handle domain.Handle, name domain.ChannelName) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.Clients.Get(handle); err != nil {
		return err
	}
	if prev, ok := o.Channels.ChannelOf(handle); ok && prev != name {
		o.clearRadioOverrides(handle, prev)
	}
	o.Channels.Join(handle, name)
	return nil
}

func (o *Orchestrator) LeaveChannel(handle domain.Handle) (domain.ChannelName, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev, ok := o.Channels.ChannelOf(handle)
	if !ok {
		return "", domain.ErrNotFound
	}
	o.clearRadioOverrides(handle, prev)
	return o.Channels.Leave(handle)
}

// SetRadioActive toggles the member's participation in the channel's audio.
// Activation installs reciprocal overrides against every other active
// member; deactivation releases them.
func (o *Orchestrator) SetRadioActive(handle domain.Handle, name domain.ChannelName, active bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !active {
		o.clearRadioOverrides(handle, name)
	}
	if err := o.Channels.SetActive(handle, name, active); err != nil {
		return err
	}
	if active {
		for _, other := range o.Channels.ActiveMembersOf(name) {
			if other == handle {
				continue
			}
			o.installPairOverrides(handle, other)
		}
	}
	return nil
}

func (o *Orchestrator) SetMutedForAll(handle domain.Handle, muted bool) error {
	return o.Mutes.SetMutedForAll(handle, muted)
}

func (o *Orchestrator) SetSpeakerMuted(listener, speaker domain.Handle, muted bool) error {
	return o.Mutes.SetSpeakerMuted(listener, speaker, muted)
}

func (o *Orchestrator) IsAudible(listener, speaker domain.Handle) bool {
	return o.Mutes.IsAudible(listener, speaker)
}

// CanHear is the full audibility decision for the transport collaborator:
// mute layers first (an explicit global mute wins over any call or channel),
// then capability flags, then override presence or plain voice range.
func (o *Orchestrator) CanHear(listener, speaker domain.Handle) bool {
	if listener == speaker {
		return false
	}
	if !o.Mutes.IsAudible(listener, speaker) {
		return false
	}
	lst, err := o.Clients.Get(listener)
	if err != nil {
		return false
	}
	spk, err := o.Clients.Get(speaker)
	if err != nil {
		return false
	}
	if !lst.Speakers || !spk.Microphone {
		return false
	}
	eff, overridden, err := o.Spatial.EffectivePosition(listener, speaker)
	if err != nil {
		return false
	}
	if overridden {
		return true
	}
	pos, err := o.Spatial.Position(listener)
	if err != nil {
		return false
	}
	voiceRange, err := o.Spatial.VoiceRange(speaker)
	if err != nil {
		return false
	}
	return pos.DistanceTo(eff) < voiceRange
}

// SetTalking emits TalkStarted/TalkStopped on edges only.
func (o *Orchestrator) SetTalking(handle domain.Handle, talking bool) error {
	changed, err := o.Clients.SetTalking(handle, talking)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	kind := core.EventTalkStopped
	if talking {
		kind = core.EventTalkStarted
	}
	o.Bus.Emit(core.Event{Kind: kind, Handle: handle})
	return nil
}

func (o *Orchestrator) SetMicrophoneEnabled(handle domain.Handle, enabled bool) error {
	changed, err := o.Clients.SetMicrophone(handle, enabled)
	if err != nil {
		return err
	}
	if changed {
		o.Bus.Emit(core.Event{Kind: core.EventMicrophoneChanged, Handle: handle, Enabled: enabled})
	}
	return nil
}

func (o *Orchestrator) SetSpeakersEnabled(handle domain.Handle, enabled bool) error {
	changed, err := o.Clients.SetSpeakers(handle, enabled)
	if err != nil {
		return err
	}
	if changed {
		o.Bus.Emit(core.Event{Kind: core.EventSpeakersChanged, Handle: handle, Enabled: enabled})
	}
	return nil
}

func (o *Orchestrator) SetNickname(handle domain.Handle, nickname string) error {
	return o.Clients.SetNickname(handle, nickname)
}

func (o *Orchestrator) handshakeURL(token string) string {
	return o.handshakeBase + "/" + token
}

// installPairOverrides wires a and b to hear each other co-located. A
// missing spatial row here means a call or channel references a handle with
// no live session, which is a defect elsewhere; it is logged and isolated,
// not propagated.
func (o *Orchestrator) installPairOverrides(a, b domain.Handle) {
	if err := o.Spatial.SetRelativeSpeakerPosition(a, b, phoneOffset); err != nil {
		o.reportInconsistency(a, b, err)
	}
	if err := o.Spatial.SetRelativeSpeakerPosition(b, a, phoneOffset); err != nil {
		o.reportInconsistency(b, a, err)
	}
}

func (o *Orchestrator) resetPairOverrides(a, b domain.Handle) {
	_ = o.Spatial.ResetRelativeSpeakerPosition(a, b)
	_ = o.Spatial.ResetRelativeSpeakerPosition(b, a)
}

func (o *Orchestrator) clearRadioOverrides(handle domain.Handle, name domain.ChannelName) {
	if !o.Channels.IsActive(handle, name) {
		return
	}
	for _, other := range o.Channels.ActiveMembersOf(name) {
		if other == handle {
			continue
		}
		o.resetPairOverrides(handle, other)
	}
}

func (o *Orchestrator) reportInconsistency(listener, speaker domain.Handle, err error) {
	msg := fmt.Sprintf("override for pair (%s, %s) failed: %v", listener, speaker, err)
	log.Error().Str("module", "app.orchestrator").Msg(msg)
	o.Bus.Emit(core.Event{Kind: core.EventLogMessage, Level: "error", Message: msg})
}
