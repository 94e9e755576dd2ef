package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLapTime(t *testing.T) {
	cases := map[float64]string{
		0:       "0:00.00",
		9.5:     "0:09.50",
		59.999:  "1:00.00",
		61.234:  "1:01.23",
		125.5:   "2:05.50",
		-3:      "0:00.00",
		600.004: "10:00.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatLapTime(in), "%v", in)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = DecodeEnvelope([]byte(`{"id":1}`))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{`))
	assert.Error(t, err)

	env, err := DecodeEnvelope([]byte(`{"type":"playerMove","payload":{"pose":{"x":1,"y":0,"z":-2,"yaw":0.5,"roll":0},"velocities":{"wheelPitch":-3}}}`))
	require.NoError(t, err)
	move, err := DecodePayload[MoveRequest](env)
	require.NoError(t, err)
	assert.Equal(t, Pose{X: 1, Z: -2, Yaw: 0.5}, move.Pose)
	assert.Equal(t, -3.0, move.Velocities.WheelPitch)
}

func TestDecodePayloadWithoutPayload(t *testing.T) {
	req, err := DecodePayload[JoinRequest](Envelope{Type: MsgJoin})
	require.NoError(t, err)
	assert.Nil(t, req.ExistingName)
}

func TestNewAck(t *testing.T) {
	ack, err := NewAck(7, RestartAck{Pose: Pose{X: 3}}, nil)
	require.NoError(t, err)
	assert.Equal(t, MsgAck, ack.Type)
	assert.Equal(t, uint64(7), ack.ID)
	assert.Empty(t, ack.Error)

	ack, err = NewAck(8, nil, errors.New("nope"))
	require.NoError(t, err)
	assert.Equal(t, "nope", ack.Error)
	assert.Empty(t, ack.Payload)

	b, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ack","id":8,"error":"nope"}`, string(b))
}

func TestJoinAckWireNames(t *testing.T) {
	b, err := json.Marshal(JoinAck{
		Player:      Player{UUID: "u", Name: "N"},
		Players:     []Player{},
		Leaderboard: Leaderboard{{Name: "N", LapTime: 1.5}},
		TrackType:   TrackLoop,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"player":{"uuid":"u","name":"N","pose":{"x":0,"y":0,"z":0,"yaw":0,"roll":0}},
		"players":[],
		"leaderboard":[{"name":"N","lapTime":1.5}],
		"trackType":"Loop"
	}`, string(b))
}
