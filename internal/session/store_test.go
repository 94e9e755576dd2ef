package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

func entry(uuid, name string) PlayerEntry {
	return PlayerEntry{Player: types.Player{UUID: uuid, Name: name}}
}

func TestJoinRequiresConnection(t *testing.T) {
	s := NewStore(engine.LeaderboardRules{})
	assert.ErrorIs(t, s.Join("nope", entry("u1", "A")), ErrUnknownSession)

	s.Connect("c1", make(chan types.Envelope, 1))
	_, err := s.Player("c1")
	assert.ErrorIs(t, err, ErrNotJoined)

	require.NoError(t, s.Join("c1", entry("u1", "A")))
	assert.ErrorIs(t, s.Join("c1", entry("u2", "B")), ErrAlreadyJoined)
	assert.Equal(t, 1, s.NumPlayers())

	p, err := s.Player("c1")
	require.NoError(t, err)
	p.LapTime = 3
	again, _ := s.Player("c1")
	assert.Equal(t, 3.0, again.LapTime)
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	s := NewStore(engine.LeaderboardRules{})
	s.Connect("c1", make(chan types.Envelope, 1))
	s.Connect("c2", make(chan types.Envelope, 1))
	require.NoError(t, s.Join("c1", entry("u1", "A")))

	gone, ok := s.Disconnect("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", gone.UUID)
	assert.Zero(t, s.NumPlayers())
	assert.False(t, s.NameTaken("A"))

	_, ok = s.Disconnect("c2")
	assert.False(t, ok, "never joined")
	_, ok = s.Disconnect("c2")
	assert.False(t, ok)
	assert.Zero(t, s.NumSessions())
}

func TestPlayersExcludesAndOrders(t *testing.T) {
	s := NewStore(engine.LeaderboardRules{})
	for id, e := range map[ID]PlayerEntry{
		"c1": entry("u1", "Zany Zebra"),
		"c2": entry("u2", "Brave Otter"),
		"c3": entry("u3", "Calm Koala"),
	} {
		s.Connect(id, make(chan types.Envelope, 1))
		require.NoError(t, s.Join(id, e))
	}
	others := s.Players("u2")
	require.Len(t, others, 2)
	assert.Equal(t, "Calm Koala", others[0].Name)
	assert.Equal(t, "Zany Zebra", others[1].Name)
	assert.Len(t, s.Players(""), 3)
	assert.True(t, s.NameTaken("Brave Otter"))
	assert.Equal(t, "Brave Otter", s.Entries()[0].Name)
}

func TestBroadcastSkipsFullAndUnjoined(t *testing.T) {
	s := NewStore(engine.LeaderboardRules{})
	fast := make(chan types.Envelope, 4)
	full := make(chan types.Envelope)
	idle := make(chan types.Envelope, 4)
	self := make(chan types.Envelope, 4)
	s.Connect("fast", fast)
	s.Connect("full", full)
	s.Connect("idle", idle)
	s.Connect("self", self)
	require.NoError(t, s.Join("fast", entry("u1", "A")))
	require.NoError(t, s.Join("full", entry("u2", "B")))
	require.NoError(t, s.Join("self", entry("u3", "C")))

	env := types.Envelope{Type: types.MsgChat}
	skipped := s.Broadcast(env, "self")
	assert.Equal(t, []ID{"full"}, skipped)
	assert.Len(t, fast, 1)
	assert.Empty(t, idle)
	assert.Empty(t, self)

	assert.True(t, s.Send("idle", env))
	assert.False(t, s.Send("full", env))
	assert.False(t, s.Send("missing", env))
}
