package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

const (
	// Score changes smaller than this do not produce a history entry, so
	// repeated recomputation with unchanged inputs stays idempotent.
	historyEpsilon = 0.01

	// Bounded retry for lost optimistic-version races.
	conflictRetries      = 3
	conflictRetryBackoff = 50 * time.Millisecond
)

// VeracityService is the score engine: it recomputes a target's veracity
// score from evidence and challenges, maintains the materialized cache row
// and the append-only history, and keeps source credibility current.
//
// Recomputation is serialized per target via a transaction-scoped advisory
// lock plus an optimistic version check on the cache row; recomputing twice
// with no intervening mutation yields an unchanged row and no history entry.
type VeracityService struct {
	scores     *repository.ScoreRepo
	evidence   *repository.EvidenceRepo
	weights    *WeightService
	consensus  *ConsensusService
	cred       *CredibilityService
	cache      *CacheService

	refreshGroup singleflight.Group
}

func NewVeracityService(scores *repository.ScoreRepo, evidence *repository.EvidenceRepo,
	weights *WeightService, consensus *ConsensusService, cred *CredibilityService,
	cache *CacheService) *VeracityService {
	return &VeracityService{
		scores:    scores,
		evidence:  evidence,
		weights:   weights,
		consensus: consensus,
		cred:      cred,
		cache:     cache,
	}
}

// GetScore returns the cached veracity score for a target. Promoted targets
// always read exactly 1.0. A stale (expired) row is still served; the sweep
// refreshes it out of band.
func (s *VeracityService) GetScore(ctx context.Context, tt model.TargetType, id string) (*model.VeracityScore, error) {
	level, err := s.scores.TargetLevel(ctx, s.scores.Pool(), tt, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTargetMissing
	}
	if err != nil {
		return nil, err
	}

	if level == model.LevelVerified {
		return s.pinnedScore(ctx, tt, id)
	}

	score, err := s.scores.Get(ctx, s.scores.Pool(), tt, id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazy creation on first read: compute synchronously.
		return s.Recompute(ctx, model.TargetRef{Type: tt, ID: id}, "first_read", "")
	}
	if err != nil {
		return nil, err
	}
	return score, nil
}

// pinnedScore returns the constant row for a promoted target without
// touching evidence or challenge tables.
func (s *VeracityService) pinnedScore(ctx context.Context, tt model.TargetType, id string) (*model.VeracityScore, error) {
	score, err := s.scores.Get(ctx, s.scores.Pool(), tt, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.VeracityScore{TargetType: tt, TargetID: id, Score: 1.0, ConsensusScore: 1.0}, nil
	}
	if err != nil {
		return nil, err
	}
	score.Score = 1.0
	return score, nil
}

// Refresh forces a synchronous recompute and returns the history record ID
// (empty when the score did not move). Concurrent refreshes for the same
// target collapse into a single in-flight computation.
func (s *VeracityService) Refresh(ctx context.Context, target model.TargetRef, reason string) (string, float64, error) {
	type result struct {
		recordID string
		score    float64
	}
	v, err, _ := s.refreshGroup.Do(target.Key(), func() (any, error) {
		score, recordID, err := s.recomputeWithHistory(ctx, target, "manual_refresh:"+reason, "")
		if err != nil {
			return nil, err
		}
		return result{recordID: recordID, score: score.Score}, nil
	})
	if err != nil {
		return "", 0, err
	}
	r := v.(result)
	return r.recordID, r.score, nil
}

// Recompute runs one full recomputation for a target, retrying bounded times
// on lost version races.
func (s *VeracityService) Recompute(ctx context.Context, target model.TargetRef, cause, triggeredBy string) (*model.VeracityScore, error) {
	score, _, err := s.recomputeWithHistory(ctx, target, cause, triggeredBy)
	return score, err
}

func (s *VeracityService) recomputeWithHistory(ctx context.Context, target model.TargetRef, cause, triggeredBy string) (*model.VeracityScore, string, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		score, recordID, err := s.recomputeOnce(ctx, target, cause, triggeredBy)
		if err == nil {
			if s.cache != nil {
				if cerr := s.cache.InvalidateScore(ctx, target); cerr != nil {
					log.Warn().Err(cerr).Str("target", target.Key()).Msg("cache invalidate failed")
				}
			}
			return score, recordID, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, "", err
		}
		lastErr = err
		select {
		case <-time.After(conflictRetryBackoff << attempt):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	return nil, "", errors.Join(ErrConflict, lastErr)
}

// recomputeOnce performs one serialized recompute transaction:
// advisory lock → read inputs → compute → versioned upsert → history append.
func (s *VeracityService) recomputeOnce(ctx context.Context, target model.TargetRef, cause, triggeredBy string) (*model.VeracityScore, string, error) {
	tx, err := s.scores.Pool().Begin(ctx)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctx)

	if err := s.scores.AcquireTargetLock(ctx, tx, target.Key()); err != nil {
		return nil, "", err
	}

	level, err := s.scores.TargetLevel(ctx, tx, target.Type, target.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrTargetMissing
	}
	if err != nil {
		return nil, "", err
	}
	if level == model.LevelVerified {
		// Promoted targets short-circuit: score stays pinned at 1.0.
		score, err := s.pinnedScore(ctx, target.Type, target.ID)
		return score, "", err
	}

	evidence, credibility, err := s.evidence.ListForTarget(ctx, tx, target.Type, target.ID)
	if err != nil {
		return nil, "", err
	}

	weighted := make([]model.WeightedEvidence, 0, len(evidence))
	for i := range evidence {
		ev := &evidence[i]
		weighted = append(weighted, model.WeightedEvidence{
			Type:            ev.Type,
			EffectiveWeight: s.weights.EffectiveWeight(ev, credibility[ev.SourceID]),
		})
	}
	agg := s.consensus.Aggregate(weighted)

	openChallenges, err := s.scores.OpenChallengeCount(ctx, tx, target.Type, target.ID)
	if err != nil {
		return nil, "", err
	}
	impact := s.consensus.ChallengeImpact(openChallenges)
	final := s.consensus.FinalScore(agg.Score, impact)

	prev, err := s.scores.Get(ctx, tx, target.Type, target.ID)
	var oldScore float64
	var expectedVersion int64
	if errors.Is(err, pgx.ErrNoRows) {
		oldScore, expectedVersion = 0, 0
	} else if err != nil {
		return nil, "", err
	} else {
		oldScore, expectedVersion = prev.Score, prev.Version
	}

	next := &model.VeracityScore{
		TargetType:      target.Type,
		TargetID:        target.ID,
		Score:           final,
		ConsensusScore:  agg.Score,
		ChallengeImpact: impact,
		EvidenceCount:   agg.EvidenceCount,
		Version:         expectedVersion + 1,
		ExpiresAt:       time.Now().Add(repository.ScoreCacheTTL),
	}
	if err := s.scores.Upsert(ctx, tx, next, expectedVersion); err != nil {
		return nil, "", err
	}

	// History is epsilon-gated so a no-op recompute leaves no trace.
	var recordID string
	if prev == nil || math.Abs(final-oldScore) > historyEpsilon {
		recordID, err = s.scores.AppendHistory(ctx, tx, &model.ScoreHistoryEntry{
			TargetType:  target.Type,
			TargetID:    target.ID,
			OldScore:    oldScore,
			NewScore:    final,
			Cause:       cause,
			TriggeredBy: triggeredBy,
		})
		if err != nil {
			return nil, "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", err
	}
	return next, recordID, nil
}

// RefreshSourceCredibility recomputes credibility for every source citing a
// target, after that target's consensus has moved. Each source update also
// changes effective weights, which the next recompute of its targets picks up.
func (s *VeracityService) RefreshSourceCredibility(ctx context.Context, target model.TargetRef) error {
	sources, err := s.evidence.SourcesForTarget(ctx, target.Type, target.ID)
	if err != nil {
		return err
	}
	for _, sourceID := range sources {
		verified, challenged, aligned, judged, total, err := s.evidence.SourceStats(ctx, sourceID)
		if err != nil {
			return err
		}
		cred := s.cred.Credibility(SourceStats{
			EvidenceCount:   total,
			VerifiedCount:   verified,
			ChallengedCount: challenged,
			AlignedCount:    aligned,
			JudgedCount:     judged,
		})
		if err := s.evidence.UpdateSourceCredibility(ctx, sourceID, cred); err != nil {
			return err
		}
	}
	return nil
}

// History returns the ordered score-change log for a target.
func (s *VeracityService) History(ctx context.Context, tt model.TargetType, id string, limit int) ([]model.ScoreHistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.scores.History(ctx, tt, id, limit)
}
