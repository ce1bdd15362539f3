package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

// HealthHandler reports process health. Postgres is the one hard dependency:
// without it no score can be read or derived, so its failure makes the
// service unready. A missing cache or a reconnecting notification listener
// only degrades quality — reads fall through to Postgres and the expiry
// sweep covers missed recomputes — so those report degraded, not down.
type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	recompute *service.RecomputeWorker
	startAt   time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, recompute *service.RecomputeWorker) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		rdb:       rdb,
		recompute: recompute,
		startAt:   time.Now(),
	}
}

// Live handles GET /health/live — liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}

// Ready handles GET /health/ready — readiness probe. Returns 503 only when
// Postgres is unreachable.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	status := "ready"
	checks := make(fiber.Map)

	dbStart := time.Now()
	if err := h.pool.Ping(ctx); err != nil {
		checks["postgres"] = fiber.Map{"status": "down", "error": "connection failed"}
		status = "unavailable"
	} else {
		checks["postgres"] = fiber.Map{
			"status":     "up",
			"latency_ms": time.Since(dbStart).Milliseconds(),
		}
	}

	switch {
	case h.rdb == nil:
		checks["cache"] = fiber.Map{"status": "disabled"}
	case h.rdb.Ping(ctx).Err() != nil:
		checks["cache"] = fiber.Map{"status": "down"}
		if status == "ready" {
			status = "degraded"
		}
	default:
		checks["cache"] = fiber.Map{"status": "up"}
	}

	if h.recompute != nil && h.recompute.ListenerUp() {
		checks["score_listener"] = fiber.Map{"status": "up"}
	} else {
		checks["score_listener"] = fiber.Map{"status": "reconnecting"}
		if status == "ready" {
			status = "degraded"
		}
	}

	code := fiber.StatusOK
	if status == "unavailable" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":         status,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
	})
}
