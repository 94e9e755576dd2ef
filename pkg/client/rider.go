package client

import (
	"time"

	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/internal/physics"
	"github.com/DoyleJ11/unicycle-racing/internal/track"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

// Input is the set of held controls for one tick.
type Input = physics.Input

// maxCatchUpTicks caps how many ticks one Update may run after a stall.
const maxCatchUpTicks = 10

// Rider is the locally simulated unicycle. It steps the integrator at the
// fixed tick rate regardless of how often Update is called, and predicts lap
// progress with the same rules the relay applies.
type Rider struct {
	model    track.Model
	state    physics.State
	progress engine.Progress
	pending  float64 // seconds not yet simulated
}

func NewRider(model track.Model, start types.Pose) *Rider {
	return &Rider{model: model, state: physics.NewState(start)}
}

// NewRiderFor builds a rider for the course named in a join ack.
func NewRiderFor(t types.TrackType, start types.Pose) (*Rider, error) {
	m, err := track.For(t)
	if err != nil {
		return nil, err
	}
	return NewRider(m, start), nil
}

// Reset puts the rider at rest at pose, e.g. after a restart ack.
func (r *Rider) Reset(pose types.Pose) {
	r.state = physics.NewState(pose)
	r.progress = engine.ProgressIdle
	r.pending = 0
}

// Tick advances exactly one fixed step and returns the move to send along
// with the predicted lap event.
func (r *Rider) Tick(in Input) (types.MoveRequest, engine.Event) {
	ground := r.model.OnMap(track.PositionOf(r.state.Pose))
	r.state = physics.Advance(r.state, in, ground)

	var evt engine.Event
	r.progress, evt = engine.Advance(r.progress, r.model, track.PositionOf(r.state.Pose))
	return r.Move(), evt
}

// Update simulates elapsed wall time in whole ticks, carrying the remainder
// to the next call. It returns one move per tick taken.
func (r *Rider) Update(elapsed time.Duration, in Input) []types.MoveRequest {
	r.pending += elapsed.Seconds()
	var moves []types.MoveRequest
	for r.pending >= physics.TickDelta {
		if len(moves) == maxCatchUpTicks {
			r.pending = 0
			break
		}
		r.pending -= physics.TickDelta
		m, _ := r.Tick(in)
		moves = append(moves, m)
	}
	return moves
}

func (r *Rider) Move() types.MoveRequest {
	return types.MoveRequest{Pose: r.state.Pose, Velocities: r.state.Velocities()}
}

func (r *Rider) Pose() types.Pose          { return r.state.Pose }
func (r *Rider) State() physics.State      { return r.state }
func (r *Rider) Progress() engine.Progress { return r.progress }
func (r *Rider) OnMap() bool               { return r.model.OnMap(track.PositionOf(r.state.Pose)) }
func (r *Rider) Track() types.TrackType    { return r.model.Type() }
