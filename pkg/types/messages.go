package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> Server
const (
	MsgJoin       = "join"
	MsgPlayerMove = "playerMove"
	MsgChat       = "chat"
	MsgSetName    = "setName"
	MsgRestart    = "restart"
)

// Server -> Client
const (
	MsgAck               = "ack"
	MsgPlayerJoin        = "playerJoin"
	MsgPlayerLeave       = "playerLeave"
	MsgPlayerChangeName  = "playerChangeName"
	MsgUpdateLeaderboard = "updateLeaderboard"
	// playerMove and chat reuse MsgPlayerMove and MsgChat.
)

var ErrEmptyMessage = errors.New("empty message")

// Envelope is the frame exchanged in both directions. ID is set on requests
// that expect an ack and echoed back on the ack.
type Envelope struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type JoinRequest struct {
	ExistingName *string `json:"existingName"`
}

type MoveRequest struct {
	Pose       Pose       `json:"pose"`
	Velocities Velocities `json:"velocities"`
}

type ChatMessage struct {
	Text string `json:"text"`
}

type SetNameRequest struct {
	Name string `json:"name"`
}

type PlayerJoinEvent struct {
	Player Player `json:"player"`
}

type PlayerLeaveEvent struct {
	UUID string `json:"uuid"`
}

type PlayerMoveEvent struct {
	UUID       string     `json:"uuid"`
	Pose       Pose       `json:"pose"`
	Velocities Velocities `json:"velocities"`
}

type PlayerChangeNameEvent struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type LeaderboardEvent struct {
	Leaderboard Leaderboard `json:"leaderboard"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(t string, payload any) (Envelope, error) {
	if t == "" {
		return Envelope{}, fmt.Errorf("trying to encode envelope without type")
	}
	env := Envelope{Type: t}
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
		env.Payload = pb
	}
	return env, nil
}

// NewAck builds the reply for request id. A non-nil err produces an error ack.
func NewAck(id uint64, payload any, err error) (Envelope, error) {
	if err != nil {
		return Envelope{Type: MsgAck, ID: id, Error: err.Error()}, nil
	}
	env, encErr := NewEnvelope(MsgAck, payload)
	env.ID = id
	return env, encErr
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyMessage
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("envelope without type")
	}
	return e, nil
}

// DecodePayload unmarshals the payload of env into T. An absent payload
// yields the zero value of T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return out, nil
}
