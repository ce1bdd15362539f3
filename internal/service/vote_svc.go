package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

// VoteService processes inbound consensus-vote events.
type VoteService struct {
	repo  *repository.VoteRepo
	cache *CacheService
}

func NewVoteService(repo *repository.VoteRepo, cache *CacheService) *VoteService {
	return &VoteService{repo: repo, cache: cache}
}

// Submit processes a vote cast or update. Vote weight is taken from the
// voter's current reputation at cast time; score recalculation happens async
// via the recompute worker's LISTEN/NOTIFY feed.
func (s *VoteService) Submit(ctx context.Context, ev model.VoteEvent) (*model.VoteResponse, error) {
	if !model.ValidTargetTypes[model.TargetType(ev.TargetType)] {
		return nil, fmt.Errorf("invalid target type: %s", ev.TargetType)
	}
	if ev.Value < 0 || ev.Value > 1 {
		return nil, fmt.Errorf("vote value must be in [0,1], got %v", ev.Value)
	}

	weight, err := s.repo.Submit(ctx, ev)
	if err != nil {
		if errors.Is(err, repository.ErrPromotedTarget) {
			return nil, ErrImmutableTarget
		}
		return nil, err
	}

	target := model.TargetRef{Type: model.TargetType(ev.TargetType), ID: ev.TargetID}
	if s.cache != nil {
		if err := s.cache.InvalidateScore(ctx, target); err != nil {
			return nil, err
		}
	}

	return &model.VoteResponse{Success: true, VoteWeight: weight}, nil
}
