package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openreel/gateway/internal/display"
	"github.com/openreel/gateway/internal/gate"
	"github.com/openreel/gateway/internal/identity"
	"github.com/openreel/gateway/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger         *slog.Logger
	Sessions       SessionManager
	Challenges     ChallengeIssuer
	Verifier       identity.Verifier
	Gate           *gate.Gate
	Feed           FeedFetcher
	Home           HomeFeed
	Display        display.Resolver
	AuthLimiter    middleware.RateLimiter
	DirectoryReady func() bool
}

// NewRouter wires the gateway's HTTP surface. Challenge and verify are
// throttled per client IP; the video directory sits behind the session
// gate with the rest of the protected surface.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{DirectoryReady: deps.DirectoryReady}
	auth := AuthHandler{Challenges: deps.Challenges, Verifier: deps.Verifier, Sessions: deps.Sessions}
	session := SessionHandler{Sessions: deps.Sessions, Gate: deps.Gate}
	videos := VideoHandler{Fetcher: deps.Feed, HomeFeed: deps.Home, Display: deps.Display}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Throttle(deps.AuthLimiter, "auth"))
			r.Post("/auth/challenge", auth.Challenge)
			r.Post("/auth/verify", auth.Verify)
		})
		r.Post("/auth/refresh", auth.Refresh)
		r.Post("/auth/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(OptionalSession(deps.Sessions))
			r.Post("/session/signals", session.Signals)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.Sessions))
			r.Get("/session", session.Current)
			r.Get("/videos", videos.List)
			r.Get("/videos/home", videos.Home)
		})
	})

	return r
}
