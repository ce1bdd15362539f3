package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type MethodologyHandler struct {
	svc *service.PromotionService
}

func NewMethodologyHandler(svc *service.PromotionService) *MethodologyHandler {
	return &MethodologyHandler{svc: svc}
}

// Complete handles POST /api/methodology/complete — marks one step done.
// X-User-ID identifies who completed the step, for the reputation worker.
func (h *MethodologyHandler) Complete(c fiber.Ctx) error {
	var ev model.MethodologyEvent
	if err := c.Bind().JSON(&ev); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	tt, errMsg := middleware.ValidateTargetType(ev.TargetType)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	ev.TargetType = tt
	id, errMsg := middleware.ValidateTargetID(ev.TargetID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	ev.TargetID = id

	completedBy, errMsg := middleware.ValidateUserID(c.Get("X-User-ID"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "X-User-ID header is required")
	}

	if err := h.svc.CompleteStep(c.Context(), ev, completedBy); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT", err.Error())
	}

	Metrics.EventsTotal.WithLabelValues("methodology").Inc()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// Progress handles GET /api/methodology/:targetType/:targetId — completed
// versus declared step counts.
func (h *MethodologyHandler) Progress(c fiber.Ctx) error {
	tt, errMsg := middleware.ValidateTargetType(c.Params("targetType"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	id, errMsg := middleware.ValidateTargetID(c.Params("targetId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	progress, err := h.svc.MethodologyProgress(c.Context(), model.TargetRef{
		Type: model.TargetType(tt), ID: id,
	})
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch progress")
	}
	return c.JSON(progress)
}
