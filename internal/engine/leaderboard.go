package engine

import (
	"slices"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

// LeaderboardRules are the knobs over the default append-only behaviour.
type LeaderboardRules struct {
	MaxEntries  int  // 0 keeps every lap
	BestPerName bool // keep only the fastest lap per display name
}

type Leaderboard struct {
	rules   LeaderboardRules
	entries types.Leaderboard
}

func NewLeaderboard(rules LeaderboardRules) *Leaderboard {
	return &Leaderboard{rules: rules, entries: types.Leaderboard{}}
}

// Insert appends the lap, stable-sorts ascending by lap time and returns a
// copy of the resulting list. Equal times keep their insertion order.
func (l *Leaderboard) Insert(name string, lapTime float64) types.Leaderboard {
	entry := types.LeaderboardEntry{Name: name, LapTime: lapTime}

	if l.rules.BestPerName {
		if i := slices.IndexFunc(l.entries, func(e types.LeaderboardEntry) bool { return e.Name == name }); i >= 0 {
			if l.entries[i].LapTime <= lapTime {
				return l.Entries()
			}
			l.entries = slices.Delete(l.entries, i, i+1)
		}
	}

	l.entries = append(l.entries, entry)
	slices.SortStableFunc(l.entries, func(a, b types.LeaderboardEntry) int {
		switch {
		case a.LapTime < b.LapTime:
			return -1
		case a.LapTime > b.LapTime:
			return 1
		default:
			return 0
		}
	})

	if l.rules.MaxEntries > 0 && len(l.entries) > l.rules.MaxEntries {
		l.entries = l.entries[:l.rules.MaxEntries]
	}
	return l.Entries()
}

func (l *Leaderboard) Entries() types.Leaderboard {
	return slices.Clone(l.entries)
}

func (l *Leaderboard) Len() int {
	return len(l.entries)
}
