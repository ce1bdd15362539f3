package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Submit handles POST /api/votes — a consensus vote cast or update.
func (h *VoteHandler) Submit(c fiber.Ctx) error {
	var ev model.VoteEvent
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
	userID, errMsg := middleware.ValidateUserID(ev.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	ev.UserID = userID

	resp, err := h.svc.Submit(c.Context(), ev)
	if err != nil {
		if errors.Is(err, service.ErrImmutableTarget) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "TARGET_PROMOTED",
				"Target is promoted; consensus voting is closed")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT", err.Error())
	}

	Metrics.VotesTotal.WithLabelValues(tt).Inc()
	return c.JSON(resp)
}
