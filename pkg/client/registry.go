package client

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

const chatHistory = 100

type remote struct {
	player     types.Player
	velocities types.Velocities
}

// Registry caches the last known state of every remote player, the
// leaderboard and recent chat, as pushed by the relay. It is safe for
// concurrent use: one goroutine applies events while a renderer reads.
type Registry struct {
	mu          sync.RWMutex
	self        types.Player
	remotes     map[string]*remote
	leaderboard types.Leaderboard
	chat        []string
}

func NewRegistry() *Registry {
	return &Registry{remotes: make(map[string]*remote)}
}

// Reset replaces the cache with the snapshot from a join ack.
func (r *Registry) Reset(ack types.JoinAck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.self = ack.Player
	r.remotes = make(map[string]*remote, len(ack.Players))
	for _, p := range ack.Players {
		if p.UUID == ack.Player.UUID {
			continue
		}
		r.remotes[p.UUID] = &remote{player: p}
	}
	r.leaderboard = slices.Clone(ack.Leaderboard)
	r.chat = nil
}

// Apply folds one server push into the cache. Unknown types are ignored.
// Moves for players the cache has never seen are ignored too; the join event
// that introduces them carries their pose.
func (r *Registry) Apply(env types.Envelope) error {
	switch env.Type {
	case types.MsgPlayerJoin:
		ev, err := types.DecodePayload[types.PlayerJoinEvent](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		if ev.Player.UUID != r.self.UUID {
			r.remotes[ev.Player.UUID] = &remote{player: ev.Player}
		}
		r.mu.Unlock()

	case types.MsgPlayerLeave:
		ev, err := types.DecodePayload[types.PlayerLeaveEvent](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		delete(r.remotes, ev.UUID)
		r.mu.Unlock()

	case types.MsgPlayerMove:
		ev, err := types.DecodePayload[types.PlayerMoveEvent](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		if rp, ok := r.remotes[ev.UUID]; ok {
			rp.player.Pose = ev.Pose
			rp.velocities = ev.Velocities
		}
		r.mu.Unlock()

	case types.MsgPlayerChangeName:
		ev, err := types.DecodePayload[types.PlayerChangeNameEvent](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		if ev.UUID == r.self.UUID {
			r.self.Name = ev.Name
		} else if rp, ok := r.remotes[ev.UUID]; ok {
			rp.player.Name = ev.Name
		}
		r.mu.Unlock()

	case types.MsgUpdateLeaderboard:
		ev, err := types.DecodePayload[types.LeaderboardEvent](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.leaderboard = ev.Leaderboard
		r.mu.Unlock()

	case types.MsgChat:
		ev, err := types.DecodePayload[types.ChatMessage](env)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.chat = append(r.chat, ev.Text)
		if len(r.chat) > chatHistory {
			r.chat = slices.Clone(r.chat[len(r.chat)-chatHistory:])
		}
		r.mu.Unlock()
	}
	return nil
}

func (r *Registry) Self() types.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

// Players returns the remote players ordered by name then uuid.
func (r *Registry) Players() []types.Player {
	r.mu.RLock()
	out := lo.Map(lo.Values(r.remotes), func(rp *remote, _ int) types.Player { return rp.player })
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b types.Player) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UUID, b.UUID))
	})
	return out
}

func (r *Registry) Player(uuid string) (types.Player, types.Velocities, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rp, ok := r.remotes[uuid]
	if !ok {
		return types.Player{}, types.Velocities{}, false
	}
	return rp.player, rp.velocities, true
}

func (r *Registry) Leaderboard() types.Leaderboard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.leaderboard)
}

func (r *Registry) Chat() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.chat)
}
