package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

type PromotionRepo struct {
	pool *pgxpool.Pool
}

func NewPromotionRepo(pool *pgxpool.Pool) *PromotionRepo {
	return &PromotionRepo{pool: pool}
}

// GetEligibility returns the cached eligibility row for a target.
func (r *PromotionRepo) GetEligibility(ctx context.Context, q Querier, tt model.TargetType, id string) (*model.PromotionEligibility, error) {
	var e model.PromotionEligibility
	err := q.QueryRow(ctx, `
		SELECT target_type, target_id, methodology_completion, weighted_consensus,
		       evidence_quality, challenge_resolution, overall_score, threshold,
		       vote_count, is_eligible, state, blocking_reasons, updated_at
		FROM promotion_eligibility
		WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&e.TargetType, &e.TargetID, &e.MethodologyCompletion,
		&e.WeightedConsensus, &e.EvidenceQuality, &e.ChallengeResolution,
		&e.OverallScore, &e.Threshold, &e.VoteCount, &e.IsEligible, &e.State,
		&e.BlockingReasons, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertEligibility writes the derived eligibility row. is_eligible and state
// are only ever set from evaluation output, never by hand.
func (r *PromotionRepo) UpsertEligibility(ctx context.Context, q Querier, e *model.PromotionEligibility) error {
	_, err := q.Exec(ctx, `
		INSERT INTO promotion_eligibility (target_type, target_id, methodology_completion,
			weighted_consensus, evidence_quality, challenge_resolution, overall_score,
			threshold, vote_count, is_eligible, state, blocking_reasons, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (target_type, target_id) DO UPDATE
		SET methodology_completion = EXCLUDED.methodology_completion,
		    weighted_consensus = EXCLUDED.weighted_consensus,
		    evidence_quality = EXCLUDED.evidence_quality,
		    challenge_resolution = EXCLUDED.challenge_resolution,
		    overall_score = EXCLUDED.overall_score,
		    threshold = EXCLUDED.threshold,
		    vote_count = EXCLUDED.vote_count,
		    is_eligible = EXCLUDED.is_eligible,
		    state = EXCLUDED.state,
		    blocking_reasons = EXCLUDED.blocking_reasons,
		    updated_at = NOW()`,
		e.TargetType, e.TargetID, e.MethodologyCompletion, e.WeightedConsensus,
		e.EvidenceQuality, e.ChallengeResolution, e.OverallScore, e.Threshold,
		e.VoteCount, e.IsEligible, e.State, e.BlockingReasons)
	return err
}

// MethodologyCompletion returns the completed fraction of a target's declared
// methodology steps. No declared steps means 0, not 1 — a target with no
// methodology can never pass the completion gate.
func (r *PromotionRepo) MethodologyCompletion(ctx context.Context, q Querier, tt model.TargetType, id string) (float64, error) {
	var completion float64
	err := q.QueryRow(ctx, `
		SELECT COALESCE(AVG(CASE WHEN completed THEN 1.0 ELSE 0.0 END), 0)
		FROM methodology_steps
		WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&completion)
	return completion, err
}

// MethodologyProgress returns completed/total step counts for a target.
func (r *PromotionRepo) MethodologyProgress(ctx context.Context, tt model.TargetType, id string) (*model.MethodologyProgress, error) {
	p := model.MethodologyProgress{TargetType: tt, TargetID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE completed), COUNT(*),
		       COALESCE(MAX(completed_at), NOW())
		FROM methodology_steps
		WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&p.CompletedSteps, &p.TotalSteps, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompleteStep marks one methodology step as completed and notifies the
// recompute worker.
func (r *PromotionRepo) CompleteStep(ctx context.Context, ev model.MethodologyEvent, completedBy string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE methodology_steps
		SET completed = true, completed_by = $1, completed_at = NOW()
		WHERE target_type = $2 AND target_id = $3 AND step_id = $4`,
		completedBy, ev.TargetType, ev.TargetID, ev.StepID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `SELECT pg_notify('score_events', $1 || ':' || $2)`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// InsertEvent appends one immutable promotion audit record and returns its ID.
func (r *PromotionRepo) InsertEvent(ctx context.Context, q Querier, e *model.PromotionEvent) (string, error) {
	eventID := uuid.NewString()
	_, err := q.Exec(ctx, `
		INSERT INTO promotion_events (event_id, target_type, target_id, kind,
			overall_score, methodology_completion, weighted_consensus,
			evidence_quality, challenge_resolution, threshold, actor, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		eventID, e.TargetType, e.TargetID, e.Kind, e.OverallScore,
		e.MethodologyCompletion, e.WeightedConsensus, e.EvidenceQuality,
		e.ChallengeResolution, e.Threshold, e.Actor, e.Reason)
	return eventID, err
}

// Events returns the ordered promotion audit log for a target, oldest first.
func (r *PromotionRepo) Events(ctx context.Context, tt model.TargetType, id string) ([]model.PromotionEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, kind, overall_score, methodology_completion, weighted_consensus,
		       evidence_quality, challenge_resolution, threshold, actor, reason, created_at
		FROM promotion_events
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at, event_id`,
		tt, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.PromotionEvent
	for rows.Next() {
		e := model.PromotionEvent{TargetType: tt, TargetID: id}
		if err := rows.Scan(&e.EventID, &e.Kind, &e.OverallScore, &e.MethodologyCompletion,
			&e.WeightedConsensus, &e.EvidenceQuality, &e.ChallengeResolution,
			&e.Threshold, &e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SetTargetLevel flips a target's verification level inside the caller's
// transaction. Part of the atomic promote / override sequence.
func (r *PromotionRepo) SetTargetLevel(ctx context.Context, q Querier, tt model.TargetType, id string, level int) error {
	tag, err := q.Exec(ctx, `
		UPDATE targets SET level = $1,
		       promoted_at = CASE WHEN $1 = 0 THEN NOW() ELSE NULL END
		WHERE target_type = $2 AND target_id = $3`,
		level, tt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetMissing
	}
	return nil
}
