// Package client is the rider side of the relay protocol: a websocket
// connection with request/ack correlation, a cache of remote players and a
// fixed-step local rider.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var (
	ErrRejected = errors.New("request rejected")
	ErrClosed   = errors.New("connection closed")
)

const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultEventBuffer    = 256
)

type Option func(*Conn)

// WithRequestTimeout bounds requests whose context carries no deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Conn) { c.timeout = d }
}

func WithEventBuffer(n int) Option {
	return func(c *Conn) { c.events = make(chan types.Envelope, n) }
}

type Conn struct {
	ws      *websocket.Conn
	timeout time.Duration
	nextID  atomic.Uint64
	dropped atomic.Int64

	mu      sync.Mutex
	pending map[uint64]chan types.Envelope

	events    chan types.Envelope
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to the relay websocket endpoint, e.g. ws://host:8082/ws.
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Conn{
		ws:      ws,
		timeout: DefaultRequestTimeout,
		pending: make(map[uint64]chan types.Envelope),
		events:  make(chan types.Envelope, DefaultEventBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c, nil
}

// Events delivers every server push that is not an ack. When the buffer is
// full further events are dropped and counted.
func (c *Conn) Events() <-chan types.Envelope { return c.events }

func (c *Conn) Dropped() int64 { return c.dropped.Load() }

// Done is closed when the connection is gone. Err tells why.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) Join(ctx context.Context, existingName *string) (types.JoinAck, error) {
	env, err := c.request(ctx, types.MsgJoin, types.JoinRequest{ExistingName: existingName})
	if err != nil {
		return types.JoinAck{}, err
	}
	return types.DecodePayload[types.JoinAck](env)
}

func (c *Conn) SetName(ctx context.Context, name string) error {
	_, err := c.request(ctx, types.MsgSetName, types.SetNameRequest{Name: name})
	return err
}

func (c *Conn) Restart(ctx context.Context) (types.Pose, error) {
	env, err := c.request(ctx, types.MsgRestart, nil)
	if err != nil {
		return types.Pose{}, err
	}
	ack, err := types.DecodePayload[types.RestartAck](env)
	return ack.Pose, err
}

func (c *Conn) Move(ctx context.Context, pose types.Pose, v types.Velocities) error {
	return c.send(ctx, types.MsgPlayerMove, 0, types.MoveRequest{Pose: pose, Velocities: v})
}

func (c *Conn) Chat(ctx context.Context, text string) error {
	return c.send(ctx, types.MsgChat, 0, types.ChatMessage{Text: text})
}

func (c *Conn) Close() error {
	c.finish(ErrClosed)
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Conn) request(ctx context.Context, msgType string, payload any) (types.Envelope, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	reply := make(chan types.Envelope, 1)
	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(ctx, msgType, id, payload); err != nil {
		return types.Envelope{}, err
	}
	select {
	case env := <-reply:
		if env.Error != "" {
			return env, fmt.Errorf("%s: %w: %s", msgType, ErrRejected, env.Error)
		}
		return env, nil
	case <-c.done:
		return types.Envelope{}, fmt.Errorf("%s: %w", msgType, c.err)
	case <-ctx.Done():
		return types.Envelope{}, fmt.Errorf("%s: %w", msgType, ctx.Err())
	}
}

func (c *Conn) send(ctx context.Context, msgType string, id uint64, payload any) error {
	env, err := types.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	env.ID = id
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	return nil
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.Read(context.Background())
		if err != nil {
			c.finish(err)
			return
		}
		env, err := types.DecodeEnvelope(data)
		if err != nil {
			continue
		}
		if env.Type == types.MsgAck {
			c.mu.Lock()
			reply, ok := c.pending[env.ID]
			c.mu.Unlock()
			if ok {
				select {
				case reply <- env:
				default:
				}
			}
			continue
		}
		select {
		case c.events <- env:
		default:
			c.dropped.Add(1)
		}
	}
}

func (c *Conn) finish(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}
