package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/repository"
)

// ReputationWorker is the periodic background job that recomputes user
// reputation and propagates new vote weights to outstanding votes.
//
// Reputation and consensus depend on each other: reputation reflects whether
// past votes aligned with eventual outcomes, while vote weight (from
// reputation) feeds the consensus those outcomes come from. Running
// reputation on its own lower-frequency epoch breaks that cycle — within any
// one promotion decision the vote weights in play are frozen snapshots from
// the last committed epoch.
type ReputationWorker struct {
	reputations *repository.ReputationRepo
	evidence    *repository.EvidenceRepo
	votes       *repository.VoteRepo
	challenges  *repository.ChallengeRepo
	svc         *ReputationService
	scheduler   TargetScheduler
	interval    time.Duration
	stopCh      chan struct{}
}

// TargetScheduler queues targets for recomputation. Satisfied by
// RecomputeWorker.
type TargetScheduler interface {
	Schedule(target model.TargetRef, cause string)
}

// NewReputationWorker creates a worker that runs one epoch every interval.
func NewReputationWorker(reputations *repository.ReputationRepo, evidence *repository.EvidenceRepo,
	votes *repository.VoteRepo, challenges *repository.ChallengeRepo,
	svc *ReputationService, scheduler TargetScheduler, interval time.Duration) *ReputationWorker {
	return &ReputationWorker{
		reputations: reputations,
		evidence:    evidence,
		votes:       votes,
		challenges:  challenges,
		svc:         svc,
		scheduler:   scheduler,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic epoch loop. It runs one epoch immediately, then
// every interval.
func (w *ReputationWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("reputation-worker: starting")

	w.epoch(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.epoch(ctx)
		case <-ctx.Done():
			log.Info().Msg("reputation-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("reputation-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *ReputationWorker) Stop() {
	close(w.stopCh)
}

// epoch runs one full cycle: recompute every active user's reputation, then
// fan out re-weighted votes and reschedule the affected targets.
func (w *ReputationWorker) epoch(ctx context.Context) {
	start := time.Now()

	userIDs, err := w.reputations.ActiveUserIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reputation-worker: active users query error")
		return
	}

	updated, reweighted := 0, 0
	for _, userID := range userIDs {
		votesTouched, err := w.RecomputeUser(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user", userID).Msg("reputation-worker: recompute error")
			continue
		}
		updated++
		reweighted += votesTouched
	}

	elapsed := time.Since(start)
	observeEpochDuration(elapsed)
	log.Info().Int("users", updated).Int("votes_reweighted", reweighted).
		Dur("elapsed", elapsed).Msg("reputation-worker: epoch complete")
}

// RecomputeUser rebuilds one user's reputation from committed history and
// refreshes the stored weight on all their outstanding votes. Returns the
// number of votes whose weight moved.
func (w *ReputationWorker) RecomputeUser(ctx context.Context, userID string) (int, error) {
	m, err := w.reputations.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	quality, evidenceCount, err := w.evidence.SubmitterQuality(ctx, userID)
	if err != nil {
		return 0, err
	}
	accuracy, voteCount, err := w.votes.VoteAccuracy(ctx, userID)
	if err != nil {
		return 0, err
	}
	methodology, err := w.reputations.MethodologyRate(ctx, userID)
	if err != nil {
		return 0, err
	}
	challengeQuality, _, err := w.challenges.ResolutionQuality(ctx, userID)
	if err != nil {
		return 0, err
	}

	m.EvidenceQuality = quality
	m.EvidenceCount = evidenceCount
	m.VoteAccuracy = accuracy
	m.VoteCount = voteCount
	m.MethodologyCompletion = methodology
	m.ChallengeQuality = challengeQuality
	m.Overall = w.svc.Overall(m)
	m.VoteWeight = w.svc.VoteWeight(m.Overall)

	if err := w.reputations.Update(ctx, m); err != nil {
		return 0, err
	}

	// Propagate the new weight to outstanding votes. Scores derived from
	// those votes may briefly lag; the rescheduled recompute catches up.
	targets, err := w.votes.RefreshWeightsForUser(ctx, userID, m.VoteWeight)
	if err != nil {
		return 0, err
	}
	for _, target := range targets {
		w.scheduler.Schedule(target, "reputation_epoch")
	}
	return len(targets), nil
}
