package app

import (
	"fmt"

	"github.com/justanothervoicechat/server-go/internal/domain"
)

// PlaybackSettings are the global 3D audio parameters the transport applies
// when spatializing: how world distance scales and how fast gain rolls off.
type PlaybackSettings struct {
	DistanceFactor float64 `json:"distance_factor"`
	RolloffFactor  float64 `json:"rolloff_factor"`
}

func (s *PlaybackSettings) normalize() {
	if s.DistanceFactor == 0 {
		s.DistanceFactor = 1
	}
	if s.RolloffFactor == 0 {
		s.RolloffFactor = 1
	}
}

func (s PlaybackSettings) validate() error {
	if s.DistanceFactor <= 0 {
		return fmt.Errorf("%w: distance factor %v", domain.ErrInvalidArgument, s.DistanceFactor)
	}
	if s.RolloffFactor <= 0 {
		return fmt.Errorf("%w: rolloff factor %v", domain.ErrInvalidArgument, s.RolloffFactor)
	}
	return nil
}

func (o *Orchestrator) Settings() PlaybackSettings {
	o.settingsMu.RLock()
	defer o.settingsMu.RUnlock()
	return o.settings
}

func (o *Orchestrator) UpdateSettings(s PlaybackSettings) error {
	if err := s.validate(); err != nil {
		return err
	}
	o.settingsMu.Lock()
	defer o.settingsMu.Unlock()
	o.settings = s
	return nil
}
