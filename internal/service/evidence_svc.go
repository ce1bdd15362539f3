package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

// EvidenceService processes inbound evidence mutation events.
type EvidenceService struct {
	repo  *repository.EvidenceRepo
	cache *CacheService
}

func NewEvidenceService(repo *repository.EvidenceRepo, cache *CacheService) *EvidenceService {
	return &EvidenceService{repo: repo, cache: cache}
}

// Apply validates and persists an evidence mutation. The write itself
// notifies the recompute worker; the cache entry is invalidated so the next
// read re-fetches. Mutating evidence on a promoted target is a fatal
// caller error, never silently ignored.
func (s *EvidenceService) Apply(ctx context.Context, ev model.EvidenceEvent) (string, error) {
	if !model.ValidTargetTypes[model.TargetType(ev.TargetType)] {
		return "", fmt.Errorf("invalid target type: %s", ev.TargetType)
	}
	if !model.ValidEvidenceTypes[model.EvidenceType(ev.Type)] {
		return "", fmt.Errorf("invalid evidence type: %s", ev.Type)
	}
	if ev.SourceID == "" {
		return "", fmt.Errorf("sourceId is required")
	}

	evidenceID, err := s.repo.Apply(ctx, ev)
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
	return evidenceID, nil
}
