package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/middleware"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/service"
)

type ChallengeHandler struct {
	svc *service.ChallengeService
}

func NewChallengeHandler(svc *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{svc: svc}
}

// Submit handles POST /api/challenges — a challenge opened/resolved event.
func (h *ChallengeHandler) Submit(c fiber.Ctx) error {
	var ev model.ChallengeEvent
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

	challengeID, err := h.svc.Apply(c.Context(), ev)
	if err != nil {
		if errors.Is(err, service.ErrImmutableTarget) {
			return middleware.ErrorResponse(c, fiber.StatusConflict, "TARGET_PROMOTED",
				"Target is promoted; challenges require a manual override first")
		}
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "CHALLENGE_NOT_FOUND",
				"No open challenge with that ID")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT", err.Error())
	}

	Metrics.EventsTotal.WithLabelValues("challenge").Inc()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"challengeId": challengeID,
		"status":      "accepted",
	})
}

// ScorePosition handles POST /api/challenges/:challengeId/positions — stores a
// position's credibility and applies category thresholds.
func (h *ChallengeHandler) ScorePosition(c fiber.Ctx) error {
	challengeID, errMsg := middleware.ValidateTargetID(c.Params("challengeId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "challengeId is invalid")
	}

	var p model.Position
	if err := c.Bind().JSON(&p); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	p.ChallengeID = challengeID
	if len(p.Category) > middleware.MaxCategoryLen {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "category too long")
	}

	if err := h.svc.ScorePosition(c.Context(), &p); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to score position")
	}
	return c.JSON(p)
}

// Positions handles GET /api/challenges/:challengeId/positions — returns the
// positions above the display threshold. ?included=true narrows to positions
// that count toward the challenge's standing.
func (h *ChallengeHandler) Positions(c fiber.Ctx) error {
	challengeID, errMsg := middleware.ValidateTargetID(c.Params("challengeId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "challengeId is invalid")
	}

	var (
		positions []model.Position
		err       error
	)
	if fiber.Query[bool](c, "included", false) {
		positions, err = h.svc.IncludedPositions(c.Context(), challengeID)
	} else {
		positions, err = h.svc.VisiblePositions(c.Context(), challengeID)
	}
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch positions")
	}
	if positions == nil {
		positions = []model.Position{}
	}
	return c.JSON(fiber.Map{"positions": positions})
}
