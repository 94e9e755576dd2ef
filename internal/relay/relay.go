// Package relay is the session relay: one goroutine that owns every player,
// session and the leaderboard, and fans events out to session outboxes.
package relay

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/internal/session"
	"github.com/DoyleJ11/unicycle-racing/internal/track"
)

var ErrStopped = errors.New("relay stopped")

const DefaultLapClockInterval = 10 * time.Millisecond

// Archive receives completed laps. Record must not block.
type Archive interface {
	Record(playerUUID, name string, lapTime float64)
}

type Options struct {
	Track            track.Model
	LapClockInterval time.Duration
	Leaderboard      engine.LeaderboardRules
	Archive          Archive // optional
	Logger           *zap.Logger
	Rand             *rand.Rand // optional, seeded randomly when nil
	InboxSize        int
}

type Relay struct {
	inbox   chan Msg
	opts    Options
	store   *session.Store
	rng     *rand.Rand
	log     *zap.Logger
	metrics *relayMetrics
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(parent context.Context, opts Options) (*Relay, error) {
	if opts.Track == nil {
		return nil, track.ErrUnknownTrack
	}
	if opts.LapClockInterval <= 0 {
		opts.LapClockInterval = DefaultLapClockInterval
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	r := &Relay{
		inbox:   make(chan Msg, opts.InboxSize),
		opts:    opts,
		store:   session.NewStore(opts.Leaderboard),
		rng:     rng,
		log:     opts.Logger.Named("relay"),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go r.loop()
	return r, nil
}

// Inbox exposes the inbox so the transport layer and tests can send messages.
func (r *Relay) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the relay goroutine has exited.
func (r *Relay) Done() <-chan struct{} { return r.done }

// Submit delivers m unless ctx ends or the relay has stopped first.
func (r *Relay) Submit(ctx context.Context, m Msg) error {
	select {
	case r.inbox <- m:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State asks the relay for a copy of its current state.
func (r *Relay) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.Submit(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (r *Relay) loop() {
	defer close(r.done)

	clock := time.NewTicker(r.opts.LapClockInterval)
	defer clock.Stop()
	dt := r.opts.LapClockInterval.Seconds()

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-clock.C:
			r.store.EachPlayer(func(p *session.PlayerEntry) { p.LapTime += dt })

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.store.Connect(msg.Session, msg.Outbox)
			case Disconnect:
				r.handleDisconnect(msg)
			case Join:
				r.handleJoin(msg)
			case Move:
				r.handleMove(msg)
			case Chat:
				r.handleChat(msg)
			case SetName:
				r.handleSetName(msg)
			case Restart:
				r.handleRestart(msg)
			case GetState:
				msg.Reply <- View{
					Track:       r.opts.Track.Type(),
					NumSessions: r.store.NumSessions(),
					Players:     r.store.Entries(),
					Leaderboard: r.store.Leaderboard().Entries(),
				}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Relay) shutdown() {
	r.log.Info("relay stopping",
		zap.Int("sessions", r.store.NumSessions()),
		zap.Int("players", r.store.NumPlayers()))
	r.cancel()
}
