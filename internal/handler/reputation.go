package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type ReputationHandler struct {
	repo   *repository.ReputationRepo
	worker *service.ReputationWorker
}

func NewReputationHandler(repo *repository.ReputationRepo, worker *service.ReputationWorker) *ReputationHandler {
	return &ReputationHandler{repo: repo, worker: worker}
}

// Get handles GET /api/reputation/:userId — the stored reputation row from
// the last committed epoch.
func (h *ReputationHandler) Get(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	m, err := h.repo.Get(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch reputation")
	}

	resp := model.ReputationResponse{
		UserID:     m.UserID,
		Overall:    m.Overall,
		VoteWeight: m.VoteWeight,
	}
	resp.Components.EvidenceQuality = m.EvidenceQuality
	resp.Components.VoteAccuracy = m.VoteAccuracy
	resp.Components.MethodologyCompletion = m.MethodologyCompletion
	resp.Components.ChallengeQuality = m.ChallengeQuality
	return c.JSON(resp)
}

// Recompute handles POST /api/reputation/:userId/recompute — an on-demand
// epoch for one user, ahead of the periodic schedule.
func (h *ReputationHandler) Recompute(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	reweighted, err := h.worker.RecomputeUser(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recompute reputation")
	}
	return c.JSON(fiber.Map{"status": "ok", "votesReweighted": reweighted})
}
