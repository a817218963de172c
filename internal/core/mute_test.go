package core

import (
	"testing"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestMutedForAll(t *testing.T) {
	m := NewMuteMatrix()
	m.Add("a")
	m.Add("b")

	require.True(t, m.IsAudible("a", "b"))

	require.NoError(t, m.SetMutedForAll("b", true))
	muted, err := m.IsMutedForAll("b")
	require.NoError(t, err)
	require.True(t, muted)
	require.False(t, m.IsAudible("a", "b"), "global mute wins")
	require.True(t, m.IsAudible("b", "a"), "only the muted speaker is silenced")

	require.NoError(t, m.SetMutedForAll("b", false))
	require.True(t, m.IsAudible("a", "b"))

	require.ErrorIs(t, m.SetMutedForAll("ghost", true), domain.ErrNotFound)
}

func TestSpeakerMute(t *testing.T) {
	m := NewMuteMatrix()
	m.Add("a")
	m.Add("b")

	require.NoError(t, m.SetSpeakerMuted("a", "b", true))
	require.False(t, m.IsAudible("a", "b"))
	require.True(t, m.IsAudible("b", "a"), "mute is directional")

	muted, err := m.IsSpeakerMuted("a", "b")
	require.NoError(t, err)
	require.True(t, muted)

	require.NoError(t, m.SetSpeakerMuted("a", "b", false))
	require.True(t, m.IsAudible("a", "b"))

	require.ErrorIs(t, m.SetSpeakerMuted("a", "ghost", true), domain.ErrNotFound)
	require.ErrorIs(t, m.SetSpeakerMuted("ghost", "b", true), domain.ErrNotFound)
}

func TestMuteRemovePurgesBothDirections(t *testing.T) {
	m := NewMuteMatrix()
	m.Add("a")
	m.Add("b")
	require.NoError(t, m.SetSpeakerMuted("a", "b", true))

	m.Remove("b")
	require.ErrorIs(t, m.SetMutedForAll("b", true), domain.ErrNotFound)

	// Re-adding b must not resurrect a's old mute entry.
	m.Add("b")
	require.True(t, m.IsAudible("a", "b"))
}
