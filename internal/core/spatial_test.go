package core

import (
	"testing"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestSpatialPositions(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("a")

	require.NoError(t, s.UpdatePosition("a", domain.Vector3{X: 1, Y: 2, Z: 3}, 90))
	pos, err := s.Position("a")
	require.NoError(t, err)
	require.Equal(t, domain.Vector3{X: 1, Y: 2, Z: 3}, pos)
	rot, err := s.Rotation("a")
	require.NoError(t, err)
	require.Equal(t, float64(90), rot)

	require.ErrorIs(t, s.UpdatePosition("ghost", domain.Vector3{}, 0), domain.ErrNotFound)
}

func TestSpatialBatchUpdate(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("a")
	s.Add("b")

	err := s.UpdatePositions([]domain.PositionUpdate{
		{Handle: "a", Position: domain.Vector3{X: 1}, Rotation: 10},
		{Handle: "ghost", Position: domain.Vector3{X: 5}, Rotation: 50},
		{Handle: "b", Position: domain.Vector3{X: 2}, Rotation: 20},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Known handles were still applied.
	pos, err := s.Position("a")
	require.NoError(t, err)
	require.Equal(t, float64(1), pos.X)
	pos, err = s.Position("b")
	require.NoError(t, err)
	require.Equal(t, float64(2), pos.X)
}

func TestVoiceRange(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("a")

	r, err := s.VoiceRange("a")
	require.NoError(t, err)
	require.Equal(t, float64(10), r, "default applied")

	require.NoError(t, s.SetVoiceRange("a", 25))
	r, err = s.VoiceRange("a")
	require.NoError(t, err)
	require.Equal(t, float64(25), r)

	require.ErrorIs(t, s.SetVoiceRange("a", 0), domain.ErrInvalidArgument)
	require.ErrorIs(t, s.SetVoiceRange("a", -3), domain.ErrInvalidArgument)
	require.ErrorIs(t, s.SetVoiceRange("ghost", 5), domain.ErrNotFound)
}

func TestRelativeOverrides(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("listener")
	s.Add("speaker")
	require.NoError(t, s.UpdatePosition("listener", domain.Vector3{X: 100}, 0))
	require.NoError(t, s.UpdatePosition("speaker", domain.Vector3{X: 500}, 0))

	// No override: raw speaker position.
	eff, overridden, err := s.EffectivePosition("listener", "speaker")
	require.NoError(t, err)
	require.False(t, overridden)
	require.Equal(t, domain.Vector3{X: 500}, eff)

	// Override places the speaker in the listener's local frame.
	require.NoError(t, s.SetRelativeSpeakerPosition("listener", "speaker", domain.Vector3{X: 1}))
	eff, overridden, err = s.EffectivePosition("listener", "speaker")
	require.NoError(t, err)
	require.True(t, overridden)
	require.Equal(t, domain.Vector3{X: 101}, eff)

	// Per-listener, not global: the reverse pair is untouched.
	_, overridden, err = s.EffectivePosition("speaker", "listener")
	require.NoError(t, err)
	require.False(t, overridden)

	require.NoError(t, s.ResetRelativeSpeakerPosition("listener", "speaker"))
	_, overridden, err = s.EffectivePosition("listener", "speaker")
	require.NoError(t, err)
	require.False(t, overridden)
}

func TestResetAllOverrides(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("l")
	s.Add("s1")
	s.Add("s2")
	require.NoError(t, s.SetRelativeSpeakerPosition("l", "s1", domain.Vector3{}))
	require.NoError(t, s.SetRelativeSpeakerPosition("l", "s2", domain.Vector3{}))

	require.NoError(t, s.ResetAllRelativeSpeakerPositions("l"))
	_, overridden, err := s.EffectivePosition("l", "s1")
	require.NoError(t, err)
	require.False(t, overridden)
	_, overridden, err = s.EffectivePosition("l", "s2")
	require.NoError(t, err)
	require.False(t, overridden)
}

func TestSpatialRemovePurgesSpeakerEntries(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("l")
	s.Add("s")
	require.NoError(t, s.SetRelativeSpeakerPosition("l", "s", domain.Vector3{}))

	s.Remove("s")
	_, _, err := s.EffectivePosition("l", "s")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Re-adding the speaker must not resurrect the old override.
	s.Add("s")
	_, overridden, err := s.EffectivePosition("l", "s")
	require.NoError(t, err)
	require.False(t, overridden)
}

func TestOverrideRequiresBothParties(t *testing.T) {
	s := NewSpatialModel(10)
	s.Add("l")
	require.ErrorIs(t, s.SetRelativeSpeakerPosition("l", "ghost", domain.Vector3{}), domain.ErrNotFound)
	require.ErrorIs(t, s.SetRelativeSpeakerPosition("ghost", "l", domain.Vector3{}), domain.ErrNotFound)
}
