// Package session holds the relay's registries: connected sessions, the
// players bound to them and the shared leaderboard.
//
// A Store is not safe for concurrent use. The relay goroutine owns it.
package session

import (
	"cmp"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrAlreadyJoined  = errors.New("session already joined")
	ErrNotJoined      = errors.New("session has not joined")
)

// ID identifies one transport connection.
type ID string

func NewID() ID { return ID(uuid.NewString()) }

// PlayerEntry is the server-side view of a joined player.
type PlayerEntry struct {
	types.Player
	Progress engine.Progress
	LapTime  float64
}

type conn struct {
	outbox chan<- types.Envelope
	player string // uuid, empty until joined
}

type Store struct {
	conns       map[ID]*conn
	players     map[string]*PlayerEntry
	leaderboard *engine.Leaderboard
}

func NewStore(rules engine.LeaderboardRules) *Store {
	return &Store{
		conns:       make(map[ID]*conn),
		players:     make(map[string]*PlayerEntry),
		leaderboard: engine.NewLeaderboard(rules),
	}
}

func (s *Store) Leaderboard() *engine.Leaderboard { return s.leaderboard }

// Connect registers a session. Reconnecting an id replaces its outbox.
func (s *Store) Connect(id ID, outbox chan<- types.Envelope) {
	if c, ok := s.conns[id]; ok {
		c.outbox = outbox
		return
	}
	s.conns[id] = &conn{outbox: outbox}
}

// Disconnect forgets the session and returns the player it carried, if any.
func (s *Store) Disconnect(id ID) (PlayerEntry, bool) {
	c, ok := s.conns[id]
	if !ok {
		return PlayerEntry{}, false
	}
	delete(s.conns, id)
	if c.player == "" {
		return PlayerEntry{}, false
	}
	p, ok := s.players[c.player]
	if !ok {
		return PlayerEntry{}, false
	}
	delete(s.players, c.player)
	return *p, true
}

// Join binds a new player to a connected session.
func (s *Store) Join(id ID, entry PlayerEntry) error {
	c, ok := s.conns[id]
	if !ok {
		return ErrUnknownSession
	}
	if c.player != "" {
		return ErrAlreadyJoined
	}
	c.player = entry.UUID
	s.players[entry.UUID] = &entry
	return nil
}

// Player returns the live entry bound to the session. The pointer stays
// valid until the session disconnects.
func (s *Store) Player(id ID) (*PlayerEntry, error) {
	c, ok := s.conns[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	if c.player == "" {
		return nil, ErrNotJoined
	}
	p, ok := s.players[c.player]
	if !ok {
		return nil, ErrNotJoined
	}
	return p, nil
}

func (s *Store) NameTaken(name string) bool {
	return lo.SomeBy(lo.Values(s.players), func(p *PlayerEntry) bool {
		return p.Name == name
	})
}

// Players lists every joined player except the one with uuid except,
// ordered by name then uuid.
func (s *Store) Players(except string) []types.Player {
	out := lo.FilterMap(lo.Values(s.players), func(p *PlayerEntry, _ int) (types.Player, bool) {
		return p.Player, p.UUID != except
	})
	slices.SortFunc(out, func(a, b types.Player) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UUID, b.UUID))
	})
	return out
}

// Entries returns copies of every player entry, ordered like Players.
func (s *Store) Entries() []PlayerEntry {
	out := lo.Map(lo.Values(s.players), func(p *PlayerEntry, _ int) PlayerEntry { return *p })
	slices.SortFunc(out, func(a, b PlayerEntry) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UUID, b.UUID))
	})
	return out
}

func (s *Store) EachPlayer(fn func(*PlayerEntry)) {
	for _, p := range s.players {
		fn(p)
	}
}

func (s *Store) Connected(id ID) bool {
	_, ok := s.conns[id]
	return ok
}

func (s *Store) NumSessions() int { return len(s.conns) }
func (s *Store) NumPlayers() int  { return len(s.players) }

// Send queues env for one session without blocking. It reports false when
// the session is unknown or its outbox is full.
func (s *Store) Send(id ID, env types.Envelope) bool {
	c, ok := s.conns[id]
	if !ok {
		return false
	}
	return offer(c.outbox, env)
}

// Broadcast queues env for every joined session except the given one and
// returns the sessions that were skipped because their outbox was full.
func (s *Store) Broadcast(env types.Envelope, except ID) []ID {
	var skipped []ID
	for id, c := range s.conns {
		if id == except || c.player == "" {
			continue
		}
		if !offer(c.outbox, env) {
			skipped = append(skipped, id)
		}
	}
	return skipped
}

func offer(ch chan<- types.Envelope, env types.Envelope) bool {
	select {
	case ch <- env:
		return true
	default:
		return false
	}
}
