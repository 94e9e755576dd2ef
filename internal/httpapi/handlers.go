// Package httpapi serves the websocket endpoint and read-only JSON views of
// the relay state.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/relay"
	"github.com/DoyleJ11/unicycle-racing/internal/store"
	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

const queryTimeout = 2 * time.Second

type LapLister interface {
	List(ctx context.Context, limit int) ([]store.LapRecord, error)
}

type PlayerView struct {
	types.Player
	LapTime float64 `json:"lapTime"`
}

type PlayersResponse struct {
	TrackType types.TrackType `json:"trackType"`
	Players   []PlayerView    `json:"players"`
}

type LeaderboardResponse struct {
	Leaderboard types.Leaderboard `json:"leaderboard"`
}

type LapsResponse struct {
	Laps []store.LapRecord `json:"laps"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Players(rl *relay.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := relayState(w, r, rl)
		if !ok {
			return
		}
		resp := PlayersResponse{TrackType: v.Track, Players: make([]PlayerView, 0, len(v.Players))}
		for _, p := range v.Players {
			resp.Players = append(resp.Players, PlayerView{Player: p.Player, LapTime: p.LapTime})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func Leaderboard(rl *relay.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := relayState(w, r, rl)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, LeaderboardResponse{Leaderboard: v.Leaderboard})
	}
}

func Laps(laps LapLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if laps == nil {
			http.Error(w, "lap archive disabled", http.StatusNotFound)
			return
		}
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
		defer cancel()
		out, err := laps.List(ctx, limit)
		if err != nil {
			log.Error("list laps", zap.Error(err))
			http.Error(w, "failed to list laps", http.StatusInternalServerError)
			return
		}
		if out == nil {
			out = []store.LapRecord{}
		}
		writeJSON(w, http.StatusOK, LapsResponse{Laps: out})
	}
}

func relayState(w http.ResponseWriter, r *http.Request, rl *relay.Relay) (relay.View, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	v, err := rl.State(ctx)
	if err != nil {
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return relay.View{}, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
