package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

const (
	methodologyComponentWeight = 0.30
	consensusComponentWeight   = 0.30
	evidenceComponentWeight    = 0.25
	challengeComponentWeight   = 0.15

	// DefaultPromotionThreshold is the overall-score bar for promotion.
	DefaultPromotionThreshold = 0.80

	// MinConsensusVotes is the participation floor below which weighted
	// consensus is not considered meaningful.
	MinConsensusVotes = 5
)

// EligibilityInputs are the committed component inputs of one evaluation.
type EligibilityInputs struct {
	MethodologyCompletion float64
	WeightedConsensus     float64
	VoteCount             int
	EvidenceQuality       float64
	OpenChallenges        int
}

// PromotionService evaluates promotion eligibility and drives the one-way
// state machine ineligible → eligible → promoted. The promoted state is
// terminal: only an explicitly logged manual override reverts it.
type PromotionService struct {
	promotions *repository.PromotionRepo
	scores     *repository.ScoreRepo
	votes      *repository.VoteRepo
	evidence   *repository.EvidenceRepo
	weights    *WeightService
	threshold  float64
	cache      *CacheService
}

func NewPromotionService(promotions *repository.PromotionRepo, scores *repository.ScoreRepo,
	votes *repository.VoteRepo, evidence *repository.EvidenceRepo,
	weights *WeightService, threshold float64, cache *CacheService) *PromotionService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultPromotionThreshold
	}
	return &PromotionService{
		promotions: promotions,
		scores:     scores,
		votes:      votes,
		evidence:   evidence,
		weights:    weights,
		threshold:  threshold,
		cache:      cache,
	}
}

// OverallScore blends the four component scores:
//
//	0.30×methodology + 0.30×weighted_consensus + 0.25×evidence_quality + 0.15×challenge_resolution
func (s *PromotionService) OverallScore(in EligibilityInputs) float64 {
	challengeResolution := 0.0
	if in.OpenChallenges == 0 {
		challengeResolution = 1.0
	}
	return clamp01(methodologyComponentWeight*clamp01(in.MethodologyCompletion) +
		consensusComponentWeight*clamp01(in.WeightedConsensus) +
		evidenceComponentWeight*clamp01(in.EvidenceQuality) +
		challengeComponentWeight*challengeResolution)
}

// Evaluate derives the eligibility verdict from committed inputs. Hard gates
// apply independent of the weighted sum: methodology completion and challenge
// resolution are binary, and consensus requires minimum participation.
func (s *PromotionService) Evaluate(in EligibilityInputs) *model.PromotionEligibility {
	challengeResolution := 0.0
	if in.OpenChallenges == 0 {
		challengeResolution = 1.0
	}

	e := &model.PromotionEligibility{
		MethodologyCompletion: clamp01(in.MethodologyCompletion),
		WeightedConsensus:     clamp01(in.WeightedConsensus),
		EvidenceQuality:       clamp01(in.EvidenceQuality),
		ChallengeResolution:   challengeResolution,
		OverallScore:          s.OverallScore(in),
		Threshold:             s.threshold,
		VoteCount:             in.VoteCount,
		BlockingReasons:       []string{},
	}

	if in.MethodologyCompletion < 1.0 {
		e.BlockingReasons = append(e.BlockingReasons, "methodology incomplete")
	}
	if in.OpenChallenges > 0 {
		e.BlockingReasons = append(e.BlockingReasons,
			fmt.Sprintf("%d open challenges", in.OpenChallenges))
	}
	if in.VoteCount < MinConsensusVotes {
		e.BlockingReasons = append(e.BlockingReasons,
			fmt.Sprintf("insufficient votes (%d of %d required)", in.VoteCount, MinConsensusVotes))
	}
	if e.OverallScore < e.Threshold {
		e.BlockingReasons = append(e.BlockingReasons,
			fmt.Sprintf("overall score %.3f below threshold %.2f", e.OverallScore, e.Threshold))
	}

	e.IsEligible = len(e.BlockingReasons) == 0
	if e.IsEligible {
		e.State = model.StateEligible
	} else {
		e.State = model.StateIneligible
	}
	return e
}

// Reevaluate recomputes the eligibility row for a target and, when the
// threshold is crossed, performs the promotion inside the same serialized
// transaction — the check-then-act sequence is atomic with respect to
// concurrent mutation of the same inputs. Returns the stored eligibility.
func (s *PromotionService) Reevaluate(ctx context.Context, target model.TargetRef) (*model.PromotionEligibility, error) {
	tx, err := s.scores.Pool().Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.scores.AcquireTargetLock(ctx, tx, target.Key()); err != nil {
		return nil, err
	}

	level, err := s.scores.TargetLevel(ctx, tx, target.Type, target.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTargetMissing
	}
	if err != nil {
		return nil, err
	}
	if level == model.LevelVerified {
		// Terminal state: eligibility is settled, nothing to derive.
		e, err := s.promotions.GetEligibility(ctx, tx, target.Type, target.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.PromotionEligibility{
				TargetType: target.Type, TargetID: target.ID,
				State: model.StatePromoted, IsEligible: false,
				Threshold: s.threshold, BlockingReasons: []string{},
			}, nil
		}
		return e, err
	}

	in, err := s.collectInputs(ctx, tx, target)
	if err != nil {
		return nil, err
	}

	e := s.Evaluate(in)
	e.TargetType = target.Type
	e.TargetID = target.ID

	if e.IsEligible {
		// Crossing the threshold triggers the irreversible transition.
		// Score pin, level flip, audit record and eligibility row commit
		// together or not at all — there is no half-promoted state.
		if err := s.promote(ctx, tx, target, e); err != nil {
			return nil, err
		}
	}

	if err := s.promotions.UpsertEligibility(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if e.State == model.StatePromoted {
		countPromotion(string(model.PromotionAutomatic))
		log.Info().Str("target", target.Key()).Float64("score", e.OverallScore).
			Msg("target promoted to verified tier")
		if s.cache != nil {
			if cerr := s.cache.InvalidateScore(ctx, target); cerr != nil {
				log.Warn().Err(cerr).Str("target", target.Key()).Msg("cache invalidate failed")
			}
		}
	}
	return e, nil
}

// collectInputs reads the committed component inputs inside the evaluation
// transaction, so the decision never uses a stale snapshot.
func (s *PromotionService) collectInputs(ctx context.Context, tx pgx.Tx, target model.TargetRef) (EligibilityInputs, error) {
	var in EligibilityInputs

	methodology, err := s.promotions.MethodologyCompletion(ctx, tx, target.Type, target.ID)
	if err != nil {
		return in, err
	}

	consensus, votes, err := s.votes.WeightedConsensus(ctx, tx, target.Type, target.ID)
	if err != nil {
		return in, err
	}

	quality, err := s.evidenceQuality(ctx, tx, target)
	if err != nil {
		return in, err
	}

	open, err := s.scores.OpenChallengeCount(ctx, tx, target.Type, target.ID)
	if err != nil {
		return in, err
	}

	in.MethodologyCompletion = methodology
	in.WeightedConsensus = consensus
	in.VoteCount = votes
	in.EvidenceQuality = quality
	in.OpenChallenges = open
	return in, nil
}

// evidenceQuality is the mean effective weight of the target's non-deleted
// supporting and refuting evidence.
func (s *PromotionService) evidenceQuality(ctx context.Context, tx pgx.Tx, target model.TargetRef) (float64, error) {
	evidence, credibility, err := s.evidence.ListForTarget(ctx, tx, target.Type, target.ID)
	if err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for i := range evidence {
		ev := &evidence[i]
		if ev.Type != model.EvidenceSupporting && ev.Type != model.EvidenceRefuting {
			continue
		}
		sum += s.weights.EffectiveWeight(ev, credibility[ev.SourceID])
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// promote performs the terminal transition inside the caller's transaction.
func (s *PromotionService) promote(ctx context.Context, tx pgx.Tx, target model.TargetRef, e *model.PromotionEligibility) error {
	if err := s.promotions.SetTargetLevel(ctx, tx, target.Type, target.ID, model.LevelVerified); err != nil {
		return err
	}

	// Pin the cached score at the maximum value.
	prev, err := s.scores.Get(ctx, tx, target.Type, target.ID)
	oldScore := 0.0
	var version int64
	if errors.Is(err, pgx.ErrNoRows) {
		prev = nil
	} else if err != nil {
		return err
	} else {
		oldScore, version = prev.Score, prev.Version
	}

	pinned := &model.VeracityScore{
		TargetType:     target.Type,
		TargetID:       target.ID,
		Score:          1.0,
		ConsensusScore: 1.0,
		ExpiresAt:      farFuture(),
	}
	if prev != nil {
		pinned.EvidenceCount = prev.EvidenceCount
		pinned.ChallengeImpact = 0
	}
	if err := s.scores.Upsert(ctx, tx, pinned, version); err != nil {
		return err
	}

	if _, err := s.scores.AppendHistory(ctx, tx, &model.ScoreHistoryEntry{
		TargetType:  target.Type,
		TargetID:    target.ID,
		OldScore:    oldScore,
		NewScore:    1.0,
		Cause:       "promotion",
		TriggeredBy: target.Key(),
	}); err != nil {
		return err
	}

	if _, err := s.promotions.InsertEvent(ctx, tx, &model.PromotionEvent{
		TargetType:            target.Type,
		TargetID:              target.ID,
		Kind:                  model.PromotionAutomatic,
		OverallScore:          e.OverallScore,
		MethodologyCompletion: e.MethodologyCompletion,
		WeightedConsensus:     e.WeightedConsensus,
		EvidenceQuality:       e.EvidenceQuality,
		ChallengeResolution:   e.ChallengeResolution,
		Threshold:             e.Threshold,
	}); err != nil {
		return err
	}

	e.State = model.StatePromoted
	return nil
}

// Override is the only legal path out of the promoted state: an explicitly
// logged manual override, audited identically to an automatic promotion.
func (s *PromotionService) Override(ctx context.Context, target model.TargetRef, actor, reason string) error {
	tx, err := s.scores.Pool().Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.scores.AcquireTargetLock(ctx, tx, target.Key()); err != nil {
		return err
	}

	level, err := s.scores.TargetLevel(ctx, tx, target.Type, target.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTargetMissing
	}
	if err != nil {
		return err
	}
	if level != model.LevelVerified {
		return ErrNotPromoted
	}

	if err := s.promotions.SetTargetLevel(ctx, tx, target.Type, target.ID, model.LevelMutable); err != nil {
		return err
	}

	if _, err := s.promotions.InsertEvent(ctx, tx, &model.PromotionEvent{
		TargetType: target.Type,
		TargetID:   target.ID,
		Kind:       model.PromotionManualOverride,
		Actor:      actor,
		Reason:     reason,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	countPromotion(string(model.PromotionManualOverride))
	log.Warn().Str("target", target.Key()).Str("actor", actor).Str("reason", reason).
		Msg("manual override: promoted target reverted to mutable")
	if s.cache != nil {
		if cerr := s.cache.InvalidateScore(ctx, target); cerr != nil {
			log.Warn().Err(cerr).Str("target", target.Key()).Msg("cache invalidate failed")
		}
	}
	return nil
}

// Eligibility returns the cached eligibility row, deriving one on first read.
func (s *PromotionService) Eligibility(ctx context.Context, target model.TargetRef) (*model.PromotionEligibility, error) {
	e, err := s.promotions.GetEligibility(ctx, s.scores.Pool(), target.Type, target.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.Reevaluate(ctx, target)
	}
	return e, err
}

// CompleteStep records one finished methodology step. The repository write
// notifies the recompute worker, which re-derives eligibility.
func (s *PromotionService) CompleteStep(ctx context.Context, ev model.MethodologyEvent, completedBy string) error {
	if !model.ValidTargetTypes[model.TargetType(ev.TargetType)] {
		return fmt.Errorf("invalid target type: %s", ev.TargetType)
	}
	if ev.StepID == "" {
		return fmt.Errorf("stepId is required")
	}
	return s.promotions.CompleteStep(ctx, ev, completedBy)
}

// MethodologyProgress returns completed/total step counts for a target.
func (s *PromotionService) MethodologyProgress(ctx context.Context, target model.TargetRef) (*model.MethodologyProgress, error) {
	return s.promotions.MethodologyProgress(ctx, target.Type, target.ID)
}

// Events returns the ordered promotion audit log for a target.
func (s *PromotionService) Events(ctx context.Context, target model.TargetRef) ([]model.PromotionEvent, error) {
	return s.promotions.Events(ctx, target.Type, target.ID)
}

// farFuture is the expiry used for pinned rows so the sweep never touches
// promoted targets.
func farFuture() time.Time {
	return time.Now().AddDate(100, 0, 0)
}
