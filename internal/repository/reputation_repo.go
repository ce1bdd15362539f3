package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

type ReputationRepo struct {
	pool *pgxpool.Pool
}

func NewReputationRepo(pool *pgxpool.Pool) *ReputationRepo {
	return &ReputationRepo{pool: pool}
}

// Get returns a user's reputation row, creating a neutral default row for a
// first-seen user.
func (r *ReputationRepo) Get(ctx context.Context, userID string) (*model.ReputationMetric, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reputation_metrics (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, err
	}

	var m model.ReputationMetric
	err = r.pool.QueryRow(ctx, `
		SELECT user_id, evidence_quality, vote_accuracy, methodology_completion,
		       challenge_quality, overall, vote_weight, evidence_count, vote_count, updated_at
		FROM reputation_metrics WHERE user_id = $1`,
		userID).Scan(&m.UserID, &m.EvidenceQuality, &m.VoteAccuracy,
		&m.MethodologyCompletion, &m.ChallengeQuality, &m.Overall, &m.VoteWeight,
		&m.EvidenceCount, &m.VoteCount, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Update persists a recomputed reputation row.
func (r *ReputationRepo) Update(ctx context.Context, m *model.ReputationMetric) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reputation_metrics
		SET evidence_quality = $1, vote_accuracy = $2, methodology_completion = $3,
		    challenge_quality = $4, overall = $5, vote_weight = $6,
		    evidence_count = $7, vote_count = $8, updated_at = NOW()
		WHERE user_id = $9`,
		m.EvidenceQuality, m.VoteAccuracy, m.MethodologyCompletion,
		m.ChallengeQuality, m.Overall, m.VoteWeight,
		m.EvidenceCount, m.VoteCount, m.UserID)
	return err
}

// ActiveUserIDs returns users with any scoring activity since the last epoch,
// for the periodic reputation recompute.
func (r *ReputationRepo) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT user_id FROM (
			SELECT submitter_id AS user_id FROM evidence WHERE deleted = false
			UNION
			SELECT user_id FROM consensus_votes
			UNION
			SELECT raised_by FROM challenges
		) activity
		WHERE user_id IS NOT NULL AND user_id <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MethodologyRate returns the fraction of completed methodology steps across
// the targets the user participates in — voted on, submitted evidence for, or
// completed steps on. Unfinished steps on those targets drag the rate down,
// so a half-done checklist reads as 0.5, not 1.0.
func (r *ReputationRepo) MethodologyRate(ctx context.Context, userID string) (float64, error) {
	var rate float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(CASE WHEN ms.completed THEN 1.0 ELSE 0.0 END), 0)
		FROM methodology_steps ms
		WHERE (ms.target_type, ms.target_id) IN (
			SELECT target_type, target_id FROM consensus_votes WHERE user_id = $1
			UNION
			SELECT target_type, target_id FROM evidence WHERE submitter_id = $1 AND deleted = false
			UNION
			SELECT target_type, target_id FROM methodology_steps WHERE completed_by = $1
		)`,
		userID).Scan(&rate)
	return rate, err
}
