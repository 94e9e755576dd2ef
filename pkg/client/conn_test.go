package client

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/httpapi"
	"github.com/DoyleJ11/unicycle-racing/internal/relay"
	"github.com/DoyleJ11/unicycle-racing/internal/track"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r, err := relay.New(ctx, relay.Options{Track: track.Loop{}, LapClockInterval: time.Hour})
	require.NoError(t, err)
	srv := httptest.NewServer(httpapi.SetupRoutes(r, nil, zap.NewNop(), httpapi.Options{AllowedOrigins: []string{"*"}}))
	t.Cleanup(srv.Close)
	return srv
}

func dialClient(t *testing.T, srv *httptest.Server, opts ...Option) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL(srv, "/ws"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// waitFor applies events to reg until cond holds or the deadline passes.
func waitFor(t *testing.T, c *Conn, reg *Registry, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case env := <-c.Events():
			require.NoError(t, reg.Apply(env))
		case <-deadline:
			t.Fatalf("condition not met in time")
		}
	}
}

func TestEndToEndRace(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	alice := dialClient(t, srv)
	bob := dialClient(t, srv)
	aliceReg, bobReg := NewRegistry(), NewRegistry()

	name := "Alice"
	ackA, err := alice.Join(ctx, &name)
	require.NoError(t, err)
	assert.Equal(t, "Alice", ackA.Player.Name)
	aliceReg.Reset(ackA)

	ackB, err := bob.Join(ctx, nil)
	require.NoError(t, err)
	require.Len(t, ackB.Players, 1)
	assert.Equal(t, ackA.Player.UUID, ackB.Players[0].UUID)
	bobReg.Reset(ackB)

	waitFor(t, alice, aliceReg, func() bool { return len(aliceReg.Players()) == 1 })
	assert.Equal(t, ackB.Player.UUID, aliceReg.Players()[0].UUID)

	// Alice rides a scripted lap; Bob sees her moves and the leaderboard.
	rider := NewRider(track.Loop{}, ackA.Player.Pose)
	for _, deg := range []float64{-10, 10, 0} {
		th := deg * math.Pi / 180
		pose := types.Pose{X: 10 * math.Cos(th), Z: 10 * math.Sin(th)}
		rider.Reset(pose)
		m := rider.Move()
		require.NoError(t, alice.Move(ctx, m.Pose, m.Velocities))
	}
	waitFor(t, bob, bobReg, func() bool { return len(bobReg.Leaderboard()) == 1 })
	assert.Equal(t, "Alice", bobReg.Leaderboard()[0].Name)
	p, _, ok := bobReg.Player(ackA.Player.UUID)
	require.True(t, ok)
	waitFor(t, bob, bobReg, func() bool {
		p, _, _ = bobReg.Player(ackA.Player.UUID)
		return p.Pose.X == 10
	})

	require.NoError(t, bob.SetName(ctx, "Bobby"))
	waitFor(t, alice, aliceReg, func() bool {
		p, _, _ := aliceReg.Player(ackB.Player.UUID)
		return p.Name == "Bobby"
	})

	err = bob.SetName(ctx, " ")
	assert.ErrorIs(t, err, ErrRejected)

	pose, err := alice.Restart(ctx)
	require.NoError(t, err)
	assert.True(t, track.Loop{}.OnFinishLine(track.PositionOf(pose)))

	require.NoError(t, alice.Chat(ctx, "gg"))
	waitFor(t, bob, bobReg, func() bool {
		chat := bobReg.Chat()
		return len(chat) > 0 && chat[len(chat)-1] == "gg"
	})

	require.NoError(t, bob.Close())
	waitFor(t, alice, aliceReg, func() bool { return len(aliceReg.Players()) == 0 })
}

func TestJoinTwiceIsRejected(t *testing.T) {
	c := dialClient(t, startServer(t))
	_, err := c.Join(context.Background(), nil)
	require.NoError(t, err)
	_, err = c.Join(context.Background(), nil)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestRequestTimesOutWithoutAck(t *testing.T) {
	// a server that reads everything and never answers
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	c := dialClient(t, srv, WithRequestTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Join(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRequestFailsWhenConnectionDrops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.Read(r.Context())
		conn.Close(websocket.StatusGoingAway, "leaving")
	}))
	t.Cleanup(srv.Close)

	c := dialClient(t, srv)
	_, err := c.Restart(context.Background())
	assert.Error(t, err)
	select {
	case <-c.Done():
		assert.Error(t, c.Err())
	case <-time.After(2 * time.Second):
		t.Fatalf("connection not reported closed")
	}
}
