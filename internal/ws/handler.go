// Package ws bridges websocket connections to the relay inbox.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/relay"
	"github.com/DoyleJ11/unicycle-racing/internal/session"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var ErrUnknownType = errors.New("unknown message type")

const (
	DefaultOutboxSize = 64
	writeTimeout      = 3 * time.Second
	submitTimeout     = 2 * time.Second
)

type Options struct {
	OutboxSize     int
	OriginPatterns []string // passed to websocket.Accept; "*" allows any origin
	ReadTimeout    time.Duration
}

func Handler(r *relay.Relay, log *zap.Logger, opts Options) http.HandlerFunc {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = DefaultOutboxSize
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Warn("accept failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(req.Context())
		defer cancel()

		id := session.NewID()
		out := make(chan types.Envelope, opts.OutboxSize)
		clog := log.With(zap.String("session", string(id)))

		if err := r.Submit(ctx, relay.Connect{Session: id, Outbox: out}); err != nil {
			clog.Warn("relay unavailable", zap.Error(err))
			conn.Close(websocket.StatusTryAgainLater, "relay unavailable")
			return
		}
		clog.Debug("connected", zap.String("remote", req.RemoteAddr))
		defer func() {
			dctx, dcancel := context.WithTimeout(context.Background(), submitTimeout)
			defer dcancel()
			if err := r.Submit(dctx, relay.Disconnect{Session: id}); err != nil {
				clog.Debug("disconnect not delivered", zap.Error(err))
			}
			clog.Debug("disconnected")
		}()

		// Writer goroutine
		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case env := <-out:
					payload, err := json.Marshal(env)
					if err != nil {
						clog.Error("encode envelope", zap.String("type", env.Type), zap.Error(err))
						continue
					}
					wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
					err = conn.Write(wctx, websocket.MessageText, payload)
					wcancel()
					if err != nil {
						clog.Debug("write failed", zap.Error(err))
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			rctx, rcancel := ctx, context.CancelFunc(func() {})
			if opts.ReadTimeout > 0 {
				rctx, rcancel = context.WithTimeout(ctx, opts.ReadTimeout)
			}
			_, data, err := conn.Read(rctx)
			rcancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			env, err := types.DecodeEnvelope(data)
			if err != nil {
				clog.Warn("malformed message dropped", zap.Error(err))
				reject(out, requestID(data), err)
				continue
			}
			msg, err := toRelayMsg(id, env)
			if err != nil {
				clog.Warn("message dropped", zap.String("type", env.Type), zap.Error(err))
				reject(out, env.ID, err)
				continue
			}
			if err := r.Submit(ctx, msg); err != nil {
				clog.Info("relay gone, closing", zap.Error(err))
				return
			}
		}
	}
}

func toRelayMsg(id session.ID, env types.Envelope) (relay.Msg, error) {
	switch env.Type {
	case types.MsgJoin:
		p, err := types.DecodePayload[types.JoinRequest](env)
		if err != nil {
			return nil, err
		}
		return relay.Join{Session: id, ReqID: env.ID, ExistingName: p.ExistingName}, nil
	case types.MsgPlayerMove:
		p, err := types.DecodePayload[types.MoveRequest](env)
		if err != nil {
			return nil, err
		}
		return relay.Move{Session: id, Pose: p.Pose, Velocities: p.Velocities}, nil
	case types.MsgChat:
		p, err := types.DecodePayload[types.ChatMessage](env)
		if err != nil {
			return nil, err
		}
		return relay.Chat{Session: id, Text: p.Text}, nil
	case types.MsgSetName:
		p, err := types.DecodePayload[types.SetNameRequest](env)
		if err != nil {
			return nil, err
		}
		return relay.SetName{Session: id, ReqID: env.ID, Name: p.Name}, nil
	case types.MsgRestart:
		return relay.Restart{Session: id, ReqID: env.ID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// requestID digs the id out of a frame that failed to decode as an envelope.
func requestID(data []byte) uint64 {
	var probe struct {
		ID uint64 `json:"id"`
	}
	_ = json.Unmarshal(data, &probe)
	return probe.ID
}

// reject answers a request that never reached the relay. Frames without an
// id get no reply.
func reject(out chan<- types.Envelope, reqID uint64, err error) {
	if reqID == 0 {
		return
	}
	env, _ := types.NewAck(reqID, nil, err)
	select {
	case out <- env:
	default:
	}
}
