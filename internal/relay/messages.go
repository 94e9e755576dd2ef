package relay

import (
	"github.com/DoyleJ11/unicycle-racing/internal/session"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

type Msg interface{ isRelayMsg() }

// Connect registers a transport session. Outbox is owned by the caller and
// is never closed by the relay.
type Connect struct {
	Session session.ID
	Outbox  chan<- types.Envelope
}

func (Connect) isRelayMsg() {}

type Disconnect struct{ Session session.ID }

func (Disconnect) isRelayMsg() {}

// Join, SetName and Restart are requests: the relay answers each with an ack
// carrying ReqID on the session's outbox.
type Join struct {
	Session      session.ID
	ReqID        uint64
	ExistingName *string
}

func (Join) isRelayMsg() {}

type Move struct {
	Session    session.ID
	Pose       types.Pose
	Velocities types.Velocities
}

func (Move) isRelayMsg() {}

type Chat struct {
	Session session.ID
	Text    string
}

func (Chat) isRelayMsg() {}

type SetName struct {
	Session session.ID
	ReqID   uint64
	Name    string
}

func (SetName) isRelayMsg() {}

type Restart struct {
	Session session.ID
	ReqID   uint64
}

func (Restart) isRelayMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRelayMsg() {}

type Shutdown struct{}

func (Shutdown) isRelayMsg() {}

// View is a copy of the relay state, safe to read outside the relay.
type View struct {
	Track       types.TrackType
	NumSessions int
	Players     []session.PlayerEntry
	Leaderboard types.Leaderboard
}
