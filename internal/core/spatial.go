package core

import (
	"fmt"
	"sync"

	"github.com/justanothervoicechat/server-go/internal/domain"
)

type spatialState struct {
	position   domain.Vector3
	rotation   float64
	voiceRange float64
	// overrides places a speaker at a fixed offset in this listener's local
	// frame, making call and radio audio range-independent.
	overrides map[domain.Handle]domain.Vector3
}

// SpatialModel holds per-client listening position and per-pair relative
// speaker overrides. Writes are pure state updates; audibility math is the
// audio transport's job, reading this state.
type SpatialModel struct {
	mu           sync.RWMutex
	clients      map[domain.Handle]*spatialState
	defaultRange float64
}

func NewSpatialModel(defaultRange float64) *SpatialModel {
	if defaultRange <= 0 {
		defaultRange = 10
	}
	return &SpatialModel{
		clients:      make(map[domain.Handle]*spatialState),
		defaultRange: defaultRange,
	}
}

// Add enrolls a handle; called by the coordinator on registration.
func (s *SpatialModel) Add(handle domain.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[handle]; ok {
		return
	}
	s.clients[handle] = &spatialState{
		voiceRange: s.defaultRange,
		overrides:  make(map[domain.Handle]domain.Vector3),
	}
}

// Remove drops the handle's row and every override referencing it as a
// speaker in other listeners' rows.
func (s *SpatialModel) Remove(handle domain.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, handle)
	for _, st := range s.clients {
		delete(st.overrides, handle)
	}
}

func (s *SpatialModel) UpdatePosition(handle domain.Handle, pos domain.Vector3, rotation float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.clients[handle]
	if !ok {
		return domain.ErrNotFound
	}
	st.position = pos
	st.rotation = rotation
	return nil
}

// UpdatePositions applies a batched tick best-effort: known handles are
// updated, missing ones are reported once via the returned error.
func (s *SpatialModel) UpdatePositions(updates []domain.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing int
	for _, u := range updates {
		st, ok := s.clients[u.Handle]
		if !ok {
			missing++
			continue
		}
		st.position = u.Position
		st.rotation = u.Rotation
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d handles in position batch", domain.ErrNotFound, missing)
	}
	return nil
}

func (s *SpatialModel) SetVoiceRange(handle domain.Handle, voiceRange float64) error {
	if voiceRange <= 0 {
		return fmt.Errorf("%w: voice range %v", domain.ErrInvalidArgument, voiceRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.clients[handle]
	if !ok {
		return domain.ErrNotFound
	}
	st.voiceRange = voiceRange
	return nil
}

// SetRelativeSpeakerPosition keys the override by listener, not globally:
// two listeners may need different spatial illusions for the same speaker
// at the same time.
func (s *SpatialModel) SetRelativeSpeakerPosition(listener, speaker domain.Handle, rel domain.Vector3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.clients[listener]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.clients[speaker]; !ok {
		return domain.ErrNotFound
	}
	st.overrides[speaker] = rel
	return nil
}

func (s *SpatialModel) ResetRelativeSpeakerPosition(listener, speaker domain.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.clients[listener]
	if !ok {
		return domain.ErrNotFound
	}
	delete(st.overrides, speaker)
	return nil
}

func (s *SpatialModel) ResetAllRelativeSpeakerPositions(listener domain.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.clients[listener]
	if !ok {
		return domain.ErrNotFound
	}
	st.overrides = make(map[domain.Handle]domain.Vector3)
	return nil
}

// EffectivePosition is where the listener perceives the speaker: listener
// position plus override when one is set, the speaker's raw position
// otherwise. The second result reports whether an override was applied.
func (s *SpatialModel) EffectivePosition(listener, speaker domain.Handle) (domain.Vector3, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lst, ok := s.clients[listener]
	if !ok {
		return domain.Vector3{}, false, domain.ErrNotFound
	}
	spk, ok := s.clients[speaker]
	if !ok {
		return domain.Vector3{}, false, domain.ErrNotFound
	}
	if rel, ok := lst.overrides[speaker]; ok {
		return lst.position.Add(rel), true, nil
	}
	return spk.position, false, nil
}

func (s *SpatialModel) Position(handle domain.Handle) (domain.Vector3, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.clients[handle]
	if !ok {
		return domain.Vector3{}, domain.ErrNotFound
	}
	return st.position, nil
}

func (s *SpatialModel) Rotation(handle domain.Handle) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.clients[handle]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return st.rotation, nil
}

func (s *SpatialModel) VoiceRange(handle domain.Handle) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.clients[handle]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return st.voiceRange, nil
}
