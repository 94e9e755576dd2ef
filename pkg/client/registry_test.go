package client

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

func envelope(t *testing.T, msgType string, payload any) types.Envelope {
	t.Helper()
	env, err := types.NewEnvelope(msgType, payload)
	require.NoError(t, err)
	return env
}

func TestRegistryAppliesEvents(t *testing.T) {
	r := NewRegistry()
	me := types.Player{UUID: "me", Name: "Me"}
	other := types.Player{UUID: "o1", Name: "Other", Pose: types.Pose{X: 1}}
	r.Reset(types.JoinAck{
		Player:      me,
		Players:     []types.Player{other},
		Leaderboard: types.Leaderboard{{Name: "Other", LapTime: 20}},
	})
	assert.Equal(t, []types.Player{other}, r.Players())
	assert.Equal(t, me, r.Self())

	newcomer := types.Player{UUID: "o2", Name: "Newcomer"}
	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerJoin, types.PlayerJoinEvent{Player: newcomer})))
	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerMove, types.PlayerMoveEvent{
		UUID: "o1", Pose: types.Pose{X: 5, Yaw: 1}, Velocities: types.Velocities{WheelPitch: -1},
	})))
	p, v, ok := r.Player("o1")
	require.True(t, ok)
	assert.Equal(t, 5.0, p.Pose.X)
	assert.Equal(t, -1.0, v.WheelPitch)

	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerChangeName, types.PlayerChangeNameEvent{UUID: "o2", Name: "Aaron"})))
	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerChangeName, types.PlayerChangeNameEvent{UUID: "me", Name: "Renamed"})))
	assert.Equal(t, "Renamed", r.Self().Name)
	players := r.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "Aaron", players[0].Name)

	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerLeave, types.PlayerLeaveEvent{UUID: "o1"})))
	_, _, ok = r.Player("o1")
	assert.False(t, ok)

	board := types.Leaderboard{{Name: "Aaron", LapTime: 9}, {Name: "Other", LapTime: 20}}
	require.NoError(t, r.Apply(envelope(t, types.MsgUpdateLeaderboard, types.LeaderboardEvent{Leaderboard: board})))
	assert.Equal(t, board, r.Leaderboard())
}

func TestRegistryIgnoresSelfAndStrangers(t *testing.T) {
	r := NewRegistry()
	r.Reset(types.JoinAck{Player: types.Player{UUID: "me"}})

	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerJoin, types.PlayerJoinEvent{Player: types.Player{UUID: "me"}})))
	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerMove, types.PlayerMoveEvent{UUID: "me"})))
	require.NoError(t, r.Apply(envelope(t, types.MsgPlayerMove, types.PlayerMoveEvent{UUID: "ghost"})))
	require.NoError(t, r.Apply(types.Envelope{Type: "somethingNew"}))
	assert.Empty(t, r.Players())

	assert.Error(t, r.Apply(types.Envelope{Type: types.MsgPlayerMove, Payload: []byte(`[]`)}))
}

func TestRegistryKeepsRecentChat(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < chatHistory+5; i++ {
		require.NoError(t, r.Apply(envelope(t, types.MsgChat, types.ChatMessage{Text: fmt.Sprint(i)})))
	}
	chat := r.Chat()
	assert.Len(t, chat, chatHistory)
	assert.Equal(t, "5", chat[0])
	assert.Equal(t, fmt.Sprint(chatHistory+4), chat[len(chat)-1])
}
