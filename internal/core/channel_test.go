package core

import (
	"testing"

	"github.com/justanothervoicechat/server-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestChannelJoinIsSingleValued(t *testing.T) {
	r := NewChannelRegistry()

	prev := r.Join("a", "ch1")
	require.Empty(t, prev)
	require.ElementsMatch(t, []domain.Handle{"a"}, r.MembersOf("ch1"))

	// Joining another channel implicitly leaves the first; ch1 empties
	// and is destroyed.
	prev = r.Join("a", "ch2")
	require.Equal(t, domain.ChannelName("ch1"), prev)
	require.Empty(t, r.MembersOf("ch1"))
	require.ElementsMatch(t, []domain.Handle{"a"}, r.MembersOf("ch2"))

	ch, ok := r.ChannelOf("a")
	require.True(t, ok)
	require.Equal(t, domain.ChannelName("ch2"), ch)
}

func TestChannelRejoinKeepsMembership(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("a", "ch1")
	prev := r.Join("a", "ch1")
	require.Empty(t, prev)
	require.ElementsMatch(t, []domain.Handle{"a"}, r.MembersOf("ch1"))
}

func TestChannelLeave(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("a", "ch1")
	r.Join("b", "ch1")

	name, err := r.Leave("a")
	require.NoError(t, err)
	require.Equal(t, domain.ChannelName("ch1"), name)
	require.ElementsMatch(t, []domain.Handle{"b"}, r.MembersOf("ch1"))

	_, err = r.Leave("a")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Leave("b")
	require.NoError(t, err)
	require.Empty(t, r.MembersOf("ch1"), "empty channel destroyed")
}

func TestChannelActiveFlag(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("a", "ch1")
	r.Join("b", "ch1")

	// Members join enrolled but inactive.
	require.Empty(t, r.ActiveMembersOf("ch1"))

	require.NoError(t, r.SetActive("a", "ch1", true))
	require.True(t, r.IsActive("a", "ch1"))
	require.ElementsMatch(t, []domain.Handle{"a"}, r.ActiveMembersOf("ch1"))
	require.ElementsMatch(t, []domain.Handle{"a", "b"}, r.MembersOf("ch1"))

	require.NoError(t, r.SetActive("a", "ch1", false))
	require.Empty(t, r.ActiveMembersOf("ch1"))

	require.ErrorIs(t, r.SetActive("c", "ch1", true), domain.ErrNotFound)
	require.ErrorIs(t, r.SetActive("a", "nope", true), domain.ErrNotFound)
}

func TestChannelSnapshot(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("a", "ch1")
	r.Join("b", "ch1")
	r.Join("c", "ch2")
	require.NoError(t, r.SetActive("b", "ch1", true))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	byName := map[domain.ChannelName]ChannelInfo{}
	for _, info := range snap {
		byName[info.Name] = info
	}
	require.Equal(t, 2, byName["ch1"].Members)
	require.Equal(t, 1, byName["ch1"].Active)
	require.Equal(t, 1, byName["ch2"].Members)
	require.Equal(t, 0, byName["ch2"].Active)
}
