package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type EligibilityHandler struct {
	svc   *service.PromotionService
	cache *service.CacheService
}

func NewEligibilityHandler(svc *service.PromotionService, cache *service.CacheService) *EligibilityHandler {
	return &EligibilityHandler{svc: svc, cache: cache}
}

// Get handles GET /api/eligibility/:targetType/:targetId
func (h *EligibilityHandler) Get(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	target := model.TargetRef{Type: model.TargetType(tt), ID: id}

	if cached, err := h.cache.GetEligibility(c.Context(), target); err == nil && cached != nil {
		Metrics.CacheHits.Inc()
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}
	Metrics.CacheMisses.Inc()

	e, err := h.svc.Eligibility(c.Context(), target)
	if err != nil {
		if errors.Is(err, service.ErrTargetMissing) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Target not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch eligibility")
	}

	if err := h.cache.SetEligibility(c.Context(), target, e); err != nil {
		middleware.Logger.Warn().Err(err).Str("target", target.Key()).Msg("cache set failed")
	}
	return c.JSON(e)
}

// Reevaluate handles POST /api/eligibility/:targetType/:targetId/reevaluate —
// forces a fresh evaluation (and promotion, if the threshold is crossed).
func (h *EligibilityHandler) Reevaluate(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	e, err := h.svc.Reevaluate(c.Context(), model.TargetRef{Type: model.TargetType(tt), ID: id})
	if err != nil {
		if errors.Is(err, service.ErrTargetMissing) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Target not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reevaluate eligibility")
	}
	return c.JSON(e)
}

// Events handles GET /api/promotions/:targetType/:targetId/events — the
// append-only promotion audit log.
func (h *EligibilityHandler) Events(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	events, err := h.svc.Events(c.Context(), model.TargetRef{Type: model.TargetType(tt), ID: id})
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch promotion events")
	}
	if events == nil {
		events = []model.PromotionEvent{}
	}
	return c.JSON(fiber.Map{"events": events})
}

// Override handles POST /api/promotions/override — the only legal exit from
// the promoted state. Actor and reason are mandatory for the audit record.
func (h *EligibilityHandler) Override(c fiber.Ctx) error {
	var req model.OverrideRequest
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
	actor, errMsg := middleware.ValidateUserID(req.Actor)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "actor is required")
	}
	reason := middleware.ValidateReason(req.Reason)
	if reason == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "reason is required")
	}

	target := model.TargetRef{Type: model.TargetType(tt), ID: id}
	if err := h.svc.Override(c.Context(), target, actor, reason); err != nil {
		switch {
		case errors.Is(err, service.ErrTargetMissing):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Target not found")
		case errors.Is(err, service.ErrNotPromoted):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "NOT_PROMOTED", "Target is not promoted")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to apply override")
	}
	return c.JSON(fiber.Map{"status": "reverted", "target": target.Key()})
}
