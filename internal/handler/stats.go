package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

type StatsHandler struct {
	scores *repository.ScoreRepo
}

func NewStatsHandler(scores *repository.ScoreRepo) *StatsHandler {
	return &StatsHandler{scores: scores}
}

// Get handles GET /api/stats — global engine statistics.
func (h *StatsHandler) Get(c fiber.Ctx) error {
	stats, err := h.scores.Stats(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch stats")
	}
	return c.JSON(stats)
}
