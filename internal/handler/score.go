package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type ScoreHandler struct {
	svc   *service.VeracityService
	cache *service.CacheService
}

func NewScoreHandler(svc *service.VeracityService, cache *service.CacheService) *ScoreHandler {
	return &ScoreHandler{svc: svc, cache: cache}
}

// Get handles GET /api/scores/:targetType/:targetId
func (h *ScoreHandler) Get(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	target := model.TargetRef{Type: model.TargetType(tt), ID: id}

	// Cache-aside: serve the cached JSON payload when present.
	if cached, err := h.cache.GetScore(c.Context(), target); err == nil && cached != nil {
		Metrics.CacheHits.Inc()
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}
	Metrics.CacheMisses.Inc()

	score, err := h.svc.GetScore(c.Context(), target.Type, target.ID)
	if err != nil {
		if errors.Is(err, service.ErrTargetMissing) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Target not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch score")
	}

	resp := model.ScoreResponse{
		TargetType:      score.TargetType,
		TargetID:        score.TargetID,
		Score:           score.Score,
		ConsensusScore:  score.ConsensusScore,
		ChallengeImpact: score.ChallengeImpact,
		EvidenceCount:   score.EvidenceCount,
		ExpiresAt:       score.ExpiresAt,
	}

	if err := h.cache.SetScore(c.Context(), target, resp); err != nil {
		middleware.Logger.Warn().Err(err).Str("target", target.Key()).Msg("cache set failed")
	}
	return c.JSON(resp)
}

// Refresh handles POST /api/scores/refresh — forces a synchronous recompute.
func (h *ScoreHandler) Refresh(c fiber.Ctx) error {
	var req model.RefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	tt, errMsg := middleware.ValidateTargetType(req.TargetType)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(req.TargetID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	reason := middleware.ValidateReason(req.Reason)
	if reason == "" {
		reason = "unspecified"
	}

	target := model.TargetRef{Type: model.TargetType(tt), ID: id}
	recordID, score, err := h.svc.Refresh(c.Context(), target, reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTargetMissing):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Target not found")
		case errors.Is(err, service.ErrConflict):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", "Concurrent recompute in progress, try again")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh score")
	}

	return c.JSON(model.RefreshResponse{ScoreRecordID: recordID, Score: score})
}

// History handles GET /api/scores/:targetType/:targetId/history
func (h *ScoreHandler) History(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	limit := fiber.Query[int](c, "limit", 100)
	entries, err := h.svc.History(c.Context(), model.TargetType(tt), id, limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch history")
	}
	if entries == nil {
		entries = []model.ScoreHistoryEntry{}
	}
	return c.JSON(fiber.Map{"history": entries})
}
