package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/unicycle-racing/internal/relay"
	"github.com/DoyleJ11/unicycle-racing/internal/ws"
)

type Options struct {
	AllowedOrigins []string
	OutboxSize     int
}

// SetupRoutes builds the router. laps may be nil when no archive is configured.
func SetupRoutes(r *relay.Relay, laps LapLister, log *zap.Logger, opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(newCORS(opts.AllowedOrigins).Handler)

	// Public routes
	router.Get("/healthz", Healthz)
	router.Get("/ws", ws.Handler(r, log, ws.Options{
		OutboxSize:     opts.OutboxSize,
		OriginPatterns: opts.AllowedOrigins,
	}))
	router.Route("/api", func(api chi.Router) {
		api.Get("/players", Players(r))
		api.Get("/leaderboard", Leaderboard(r))
		api.Get("/laps", Laps(laps, log))
	})
	return router
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedHeaders: []string{"*"},
	})
}
