package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Submit inserts or updates a consensus vote using atomic SQL. The stored
// weight is the voter's current vote weight at cast time (the reputation
// worker refreshes it later if reputation changes). Returns the weight used.
func (r *VoteRepo) Submit(ctx context.Context, ev model.VoteEvent) (weight float64, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// Serialize against promotion on the same target before reading the
	// level, so the check cannot pass while a promotion commits.
	target := model.TargetRef{Type: model.TargetType(ev.TargetType), ID: ev.TargetID}
	if err := lockTarget(ctx, tx, target.Key()); err != nil {
		return 0, err
	}

	// Promoted targets accept no further community votes.
	var level int
	err = tx.QueryRow(ctx, `
		SELECT level FROM targets WHERE target_type = $1 AND target_id = $2`,
		ev.TargetType, ev.TargetID).Scan(&level)
	if err != nil && err != pgx.ErrNoRows {
		return 0, err
	}
	if err == nil && level == model.LevelVerified {
		return 0, ErrPromotedTarget
	}

	// Ensure target and voter rows exist (auto-create with defaults)
	_, err = tx.Exec(ctx, `
		INSERT INTO targets (target_type, target_id) VALUES ($1, $2)
		ON CONFLICT (target_type, target_id) DO NOTHING`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reputation_metrics (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`,
		ev.UserID)
	if err != nil {
		return 0, err
	}

	// Weight derives from the voter's current reputation at cast time.
	err = tx.QueryRow(ctx, `
		SELECT vote_weight FROM reputation_metrics WHERE user_id = $1`,
		ev.UserID).Scan(&weight)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO consensus_votes (target_type, target_id, user_id, value, weight)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (target_type, target_id, user_id) DO UPDATE
		SET value = EXCLUDED.value, weight = EXCLUDED.weight, updated_at = NOW()`,
		ev.TargetType, ev.TargetID, ev.UserID, ev.Value, weight)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `SELECT pg_notify('score_events', $1 || ':' || $2)`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return 0, err
	}

	return weight, tx.Commit(ctx)
}

// WeightedConsensus returns the weighted average vote value and participation
// count for a target, read inside the caller's transaction so a promotion
// decision sees committed weights only.
func (r *VoteRepo) WeightedConsensus(ctx context.Context, q Querier, tt model.TargetType, id string) (avg float64, count int, err error) {
	err = q.QueryRow(ctx, `
		SELECT COALESCE(SUM(value * weight) / NULLIF(SUM(weight), 0), 0), COUNT(*)
		FROM consensus_votes
		WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&avg, &count)
	return
}

// RefreshWeightsForUser re-weights all of a user's outstanding votes after a
// reputation change. Propagation, not recomputation of the votes themselves.
// Returns the affected targets so their scores can be rescheduled.
func (r *VoteRepo) RefreshWeightsForUser(ctx context.Context, userID string, newWeight float64) ([]model.TargetRef, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE consensus_votes
		SET weight = $1, updated_at = NOW()
		WHERE user_id = $2 AND weight <> $1
		RETURNING target_type, target_id`,
		newWeight, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []model.TargetRef
	for rows.Next() {
		var t model.TargetRef
		if err := rows.Scan(&t.Type, &t.ID); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// VoteAccuracy returns how often a user's judged votes aligned with the
// eventual outcome: a vote counts as accurate when its value sits on the same
// side of 0.5 as the target's settled consensus.
func (r *VoteRepo) VoteAccuracy(ctx context.Context, userID string) (accuracy float64, count int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(AVG(CASE
				WHEN (cv.value >= 0.5) = (vs.consensus_score >= 0.5) THEN 1.0
				ELSE 0.0 END), 0),
			COUNT(*)
		FROM consensus_votes cv
		JOIN veracity_scores vs
		  ON vs.target_type = cv.target_type AND vs.target_id = cv.target_id
		WHERE cv.user_id = $1 AND vs.consensus_score <> 0.5`,
		userID).Scan(&accuracy, &count)
	return
}
