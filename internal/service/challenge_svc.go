package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/config"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

// ChallengeService processes inbound challenge status changes and scores
// challenge positions against the per-category credibility thresholds.
type ChallengeService struct {
	repo       *repository.ChallengeRepo
	cache      *CacheService
	thresholds config.ThresholdSet
}

func NewChallengeService(repo *repository.ChallengeRepo, cache *CacheService, thresholds config.ThresholdSet) *ChallengeService {
	return &ChallengeService{repo: repo, cache: cache, thresholds: thresholds}
}

// Apply records a challenge status change. Opening a challenge against a
// promoted target is rejected as an immutability violation.
func (s *ChallengeService) Apply(ctx context.Context, ev model.ChallengeEvent) (string, error) {
	if !model.ValidTargetTypes[model.TargetType(ev.TargetType)] {
		return "", fmt.Errorf("invalid target type: %s", ev.TargetType)
	}
	if !model.ValidChallengeStatuses[model.ChallengeStatus(ev.NewStatus)] {
		return "", fmt.Errorf("invalid challenge status: %s", ev.NewStatus)
	}
	if ev.NewStatus == string(model.ChallengeResolved) && ev.ChallengeID == "" {
		return "", fmt.Errorf("challengeId is required to resolve a challenge")
	}

	challengeID, err := s.repo.Apply(ctx, ev)
	if err != nil {
		if errors.Is(err, repository.ErrPromotedTarget) {
			return "", ErrImmutableTarget
		}
		return "", err
	}

	target := model.TargetRef{Type: model.TargetType(ev.TargetType), ID: ev.TargetID}
	if s.cache != nil {
		if err := s.cache.InvalidateScore(ctx, target); err != nil {
			return "", err
		}
	}
	return challengeID, nil
}

// ScorePosition stores a position's evidence-derived credibility and applies
// the category thresholds: below display it is hidden, at or above inclusion
// it counts, at or above auto-amend it may amend the target's content.
func (s *ChallengeService) ScorePosition(ctx context.Context, p *model.Position) error {
	if p.PositionID == "" {
		p.PositionID = uuid.NewString()
	}
	t := s.thresholds.For(p.Category)
	p.Credibility = clamp01(p.Credibility)
	p.AutoAmend = p.Credibility >= t.AutoAmendThreshold
	return s.repo.UpsertPosition(ctx, p)
}

// VisiblePositions returns a challenge's positions filtered by the display
// threshold for their category.
func (s *ChallengeService) VisiblePositions(ctx context.Context, challengeID string) ([]model.Position, error) {
	positions, err := s.repo.PositionsForChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	visible := positions[:0]
	for _, p := range positions {
		if p.Credibility >= s.thresholds.For(p.Category).DisplayThreshold {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// IncludedPositions returns the positions strong enough to count toward a
// challenge's standing (at or above the inclusion threshold).
func (s *ChallengeService) IncludedPositions(ctx context.Context, challengeID string) ([]model.Position, error) {
	positions, err := s.repo.PositionsForChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	included := positions[:0]
	for _, p := range positions {
		if p.Credibility >= s.thresholds.For(p.Category).InclusionThreshold {
			included = append(included, p)
		}
	}
	return included, nil
}
