package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/internal/names"
	"github.com/DoyleJ11/unicycle-racing/internal/session"
	"github.com/DoyleJ11/unicycle-racing/internal/track"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var ErrEmptyName = errors.New("name must not be empty")

func (r *Relay) handleJoin(msg Join) {
	if _, err := r.store.Player(msg.Session); !errors.Is(err, session.ErrNotJoined) {
		if err == nil {
			err = session.ErrAlreadyJoined
		}
		r.log.Warn("join rejected", zap.String("session", string(msg.Session)), zap.Error(err))
		r.ack(msg.Session, msg.ReqID, nil, err)
		return
	}

	name := ""
	if msg.ExistingName != nil {
		name = strings.TrimSpace(*msg.ExistingName)
	}
	if name == "" || r.store.NameTaken(name) {
		name = names.Unique(r.rng, r.store.NameTaken)
	}

	entry := session.PlayerEntry{
		Player: types.Player{
			UUID: uuid.NewString(),
			Name: name,
			Pose: r.opts.Track.GenerateStartingPosition(r.rng),
		},
		Progress: engine.ProgressIdle,
	}
	if err := r.store.Join(msg.Session, entry); err != nil {
		r.log.Error("join failed", zap.String("session", string(msg.Session)), zap.Error(err))
		r.ack(msg.Session, msg.ReqID, nil, err)
		return
	}
	r.log.Info("player joined",
		zap.String("uuid", entry.UUID),
		zap.String("name", entry.Name))
	r.metrics.joins.Add(context.Background(), 1)
	r.metrics.players.Add(context.Background(), 1)

	r.ack(msg.Session, msg.ReqID, types.JoinAck{
		Player:      entry.Player,
		Players:     r.store.Players(entry.UUID),
		Leaderboard: r.store.Leaderboard().Entries(),
		TrackType:   r.opts.Track.Type(),
	}, nil)

	r.broadcast(types.MsgChat, types.ChatMessage{Text: entry.Name + " joined!"}, "")
	r.broadcast(types.MsgPlayerJoin, types.PlayerJoinEvent{Player: entry.Player}, msg.Session)
}

func (r *Relay) handleMove(msg Move) {
	p, err := r.store.Player(msg.Session)
	if err != nil {
		r.log.Debug("move dropped", zap.String("session", string(msg.Session)), zap.Error(err))
		return
	}
	p.Pose = msg.Pose

	var evt engine.Event
	p.Progress, evt = engine.Advance(p.Progress, r.opts.Track, track.PositionOf(msg.Pose))
	if evt.Type == engine.EvtLapCompleted {
		r.completeLap(p)
	}

	r.broadcast(types.MsgPlayerMove, types.PlayerMoveEvent{
		UUID:       p.UUID,
		Pose:       msg.Pose,
		Velocities: msg.Velocities,
	}, msg.Session)
}

func (r *Relay) completeLap(p *session.PlayerEntry) {
	lapTime := p.LapTime
	p.LapTime = 0

	board := r.store.Leaderboard().Insert(p.Name, lapTime)
	r.log.Info("lap completed",
		zap.String("uuid", p.UUID),
		zap.String("name", p.Name),
		zap.Float64("lapTime", lapTime))
	r.metrics.laps.Add(context.Background(), 1)

	r.broadcast(types.MsgUpdateLeaderboard, types.LeaderboardEvent{Leaderboard: board}, "")
	r.broadcast(types.MsgChat, types.ChatMessage{
		Text: fmt.Sprintf("%s finished a lap in %s", p.Name, types.FormatLapTime(lapTime)),
	}, "")

	if r.opts.Archive != nil {
		r.opts.Archive.Record(p.UUID, p.Name, lapTime)
	}
}

func (r *Relay) handleChat(msg Chat) {
	if _, err := r.store.Player(msg.Session); err != nil {
		r.log.Debug("chat dropped", zap.String("session", string(msg.Session)), zap.Error(err))
		return
	}
	r.broadcast(types.MsgChat, types.ChatMessage{Text: msg.Text}, "")
}

func (r *Relay) handleSetName(msg SetName) {
	p, err := r.store.Player(msg.Session)
	if err != nil {
		r.log.Debug("setName dropped", zap.String("session", string(msg.Session)), zap.Error(err))
		r.ack(msg.Session, msg.ReqID, nil, err)
		return
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		r.ack(msg.Session, msg.ReqID, nil, ErrEmptyName)
		return
	}
	r.log.Info("player renamed",
		zap.String("uuid", p.UUID),
		zap.String("from", p.Name),
		zap.String("to", name))
	p.Name = name

	r.broadcast(types.MsgPlayerChangeName, types.PlayerChangeNameEvent{UUID: p.UUID, Name: name}, "")
	r.ack(msg.Session, msg.ReqID, struct{}{}, nil)
}

func (r *Relay) handleRestart(msg Restart) {
	p, err := r.store.Player(msg.Session)
	if err != nil {
		r.log.Debug("restart dropped", zap.String("session", string(msg.Session)), zap.Error(err))
		r.ack(msg.Session, msg.ReqID, nil, err)
		return
	}
	p.Pose = r.opts.Track.GenerateStartingPosition(r.rng)
	p.Progress = engine.ProgressIdle
	p.LapTime = 0

	r.ack(msg.Session, msg.ReqID, types.RestartAck{Pose: p.Pose}, nil)

	r.broadcast(types.MsgChat, types.ChatMessage{Text: p.Name + " restarted"}, "")
	r.broadcast(types.MsgPlayerMove, types.PlayerMoveEvent{
		UUID:       p.UUID,
		Pose:       p.Pose,
		Velocities: types.Velocities{WheelPitch: 0},
	}, "")
}

func (r *Relay) handleDisconnect(msg Disconnect) {
	p, ok := r.store.Disconnect(msg.Session)
	if !ok {
		return
	}
	r.log.Info("player left", zap.String("uuid", p.UUID), zap.String("name", p.Name))
	r.metrics.players.Add(context.Background(), -1)
	r.broadcast(types.MsgPlayerLeave, types.PlayerLeaveEvent{UUID: p.UUID}, "")
}

func (r *Relay) ack(id session.ID, reqID uint64, payload any, err error) {
	env, encErr := types.NewAck(reqID, payload, err)
	if encErr != nil {
		r.log.Error("encode ack", zap.Error(encErr))
		env, _ = types.NewAck(reqID, nil, encErr)
	}
	if !r.store.Connected(id) {
		r.log.Debug("ack for unknown session dropped", zap.String("session", string(id)))
		return
	}
	if !r.store.Send(id, env) {
		r.skipped(env.Type, id)
	}
}

// broadcast sends to every joined session except the given one. Delivery is
// best effort: a full outbox skips that session only.
func (r *Relay) broadcast(msgType string, payload any, except session.ID) {
	env, err := types.NewEnvelope(msgType, payload)
	if err != nil {
		r.log.Error("encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	for _, id := range r.store.Broadcast(env, except) {
		r.skipped(msgType, id)
	}
}

func (r *Relay) skipped(msgType string, id session.ID) {
	r.log.Warn("outbox full, message skipped",
		zap.String("type", msgType),
		zap.String("session", string(id)))
	r.metrics.skipped.Add(context.Background(), 1)
}
