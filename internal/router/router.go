package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/handler"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Score       *handler.ScoreHandler
	Evidence    *handler.EvidenceHandler
	Challenge   *handler.ChallengeHandler
	Vote        *handler.VoteHandler
	Methodology *handler.MethodologyHandler
	Eligibility *handler.EligibilityHandler
	Reputation  *handler.ReputationHandler
	Stats       *handler.StatsHandler
	Health      *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (before API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	readLimit := middleware.NewReadRateLimiter().Handler()
	mutateLimit := middleware.NewMutationRateLimiter().Handler()
	refreshLimit := middleware.NewRefreshRateLimiter().Handler()
	overrideLimit := middleware.NewOverrideRateLimiter().Handler()
	statsLimit := middleware.NewStatsRateLimiter().Handler()

	// Score routes
	api.Get("/scores/:targetType/:targetId", h.Score.Get, readLimit)
	api.Get("/scores/:targetType/:targetId/history", h.Score.History, readLimit)
	api.Post("/scores/refresh", h.Score.Refresh, refreshLimit)

	// Mutation event intake
	api.Post("/evidence", h.Evidence.Submit, mutateLimit)
	api.Post("/challenges", h.Challenge.Submit, mutateLimit)
	api.Post("/votes", h.Vote.Submit, mutateLimit)
	api.Post("/methodology/complete", h.Methodology.Complete, mutateLimit)

	// Challenge positions
	api.Get("/challenges/:challengeId/positions", h.Challenge.Positions, readLimit)
	api.Post("/challenges/:challengeId/positions", h.Challenge.ScorePosition, mutateLimit)

	// Methodology progress
	api.Get("/methodology/:targetType/:targetId", h.Methodology.Progress, readLimit)

	// Promotion routes
	api.Get("/eligibility/:targetType/:targetId", h.Eligibility.Get, readLimit)
	api.Post("/eligibility/:targetType/:targetId/reevaluate", h.Eligibility.Reevaluate, refreshLimit)
	api.Get("/promotions/:targetType/:targetId/events", h.Eligibility.Events, readLimit)
	api.Post("/promotions/override", h.Eligibility.Override, overrideLimit)

	// Reputation routes
	api.Get("/reputation/:userId", h.Reputation.Get, readLimit)
	api.Post("/reputation/:userId/recompute", h.Reputation.Recompute, refreshLimit)

	// Stats routes
	api.Get("/stats", h.Stats.Get, statsLimit)
}
