package core

import (
	"testing"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewClientRegistry()

	c, err := r.Register("a")
	require.NoError(t, err)
	require.Equal(t, domain.Handle("a"), c.Handle)
	require.Equal(t, domain.StatePrepared, c.State)
	require.NotEmpty(t, c.HandshakeToken)
	require.True(t, c.Microphone)
	require.True(t, c.Speakers)

	_, err = r.Register("a")
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	got, err := r.Get("a")
	require.NoError(t, err)
	require.Equal(t, c.HandshakeToken, got.HandshakeToken)

	require.NoError(t, r.ConfirmConnected("a"))
	got, err = r.Get("a")
	require.NoError(t, err)
	require.Equal(t, domain.StateConnected, got.State)

	_, err = r.Unregister("a")
	require.NoError(t, err)
	_, err = r.Get("a")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.Unregister("a")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryTokenReissuedOnReconnect(t *testing.T) {
	r := NewClientRegistry()

	first, err := r.Register("a")
	require.NoError(t, err)
	_, err = r.Unregister("a")
	require.NoError(t, err)

	second, err := r.Register("a")
	require.NoError(t, err)
	require.NotEqual(t, first.HandshakeToken, second.HandshakeToken)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewClientRegistry()
	_, err := r.Register("a")
	require.NoError(t, err)
	_, err = r.Register("b")
	require.NoError(t, err)

	snap := r.All()
	require.Len(t, snap, 2)

	// Mutations after the snapshot do not retroactively affect it.
	_, err = r.Unregister("a")
	require.NoError(t, err)
	require.Len(t, snap, 2)
	require.Equal(t, 1, r.Count())
}

func TestRegistryTalkingEdges(t *testing.T) {
	r := NewClientRegistry()
	_, err := r.Register("a")
	require.NoError(t, err)

	changed, err := r.SetTalking("a", true)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = r.SetTalking("a", true)
	require.NoError(t, err)
	require.False(t, changed)

	changed, err = r.SetTalking("a", false)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = r.SetTalking("ghost", true)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryNickname(t *testing.T) {
	r := NewClientRegistry()
	_, err := r.Register("a")
	require.NoError(t, err)

	require.NoError(t, r.SetNickname("a", "Smith"))
	got, err := r.Get("a")
	require.NoError(t, err)
	require.Equal(t, "Smith", got.Nickname)

	err = r.SetNickname("a", "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	err = r.SetNickname("ghost", "Smith")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
