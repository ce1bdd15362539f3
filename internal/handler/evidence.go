package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type EvidenceHandler struct {
	svc *service.EvidenceService
}

func NewEvidenceHandler(svc *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

// Submit handles POST /api/evidence — an evidence added/updated/removed event.
func (h *EvidenceHandler) Submit(c fiber.Ctx) error {
	var ev model.EvidenceEvent
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
	sourceID, errMsg := middleware.ValidateSourceID(ev.SourceID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	ev.SourceID = sourceID

	evidenceID, err := h.svc.Apply(c.Context(), ev)
	if err != nil {
		if errors.Is(err, service.ErrImmutableTarget) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "TARGET_PROMOTED",
				"Target is promoted; evidence mutations require a manual override first")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT", err.Error())
	}

	Metrics.EventsTotal.WithLabelValues("evidence").Inc()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"evidenceId": evidenceID,
		"status":     "accepted",
	})
}
