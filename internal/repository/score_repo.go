package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

// ScoreCacheTTL is how long a cache row stays fresh before the sweep
// schedules a self-heal recompute.
const ScoreCacheTTL = 15 * time.Minute

type ScoreRepo struct {
	pool *pgxpool.Pool
}

func NewScoreRepo(pool *pgxpool.Pool) *ScoreRepo {
	return &ScoreRepo{pool: pool}
}

// Pool exposes the underlying pool for transaction management by the engine.
func (r *ScoreRepo) Pool() *pgxpool.Pool {
	return r.pool
}

// TargetLevel returns the verification level of a target, or pgx.ErrNoRows
// if the target has never been seen.
func (r *ScoreRepo) TargetLevel(ctx context.Context, q Querier, tt model.TargetType, id string) (int, error) {
	var level int
	err := q.QueryRow(ctx, `
		SELECT level FROM targets WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&level)
	return level, err
}

// Get returns the cached score row for a target.
func (r *ScoreRepo) Get(ctx context.Context, q Querier, tt model.TargetType, id string) (*model.VeracityScore, error) {
	var s model.VeracityScore
	err := q.QueryRow(ctx, `
		SELECT target_type, target_id, score, consensus_score, challenge_impact,
		       evidence_count, version, expires_at, updated_at
		FROM veracity_scores
		WHERE target_type = $1 AND target_id = $2`,
		tt, id).Scan(&s.TargetType, &s.TargetID, &s.Score, &s.ConsensusScore,
		&s.ChallengeImpact, &s.EvidenceCount, &s.Version, &s.ExpiresAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes a cache row with an optimistic version check. expectedVersion
// is 0 for a lazily-created first row. Returns ErrVersionConflict when a
// concurrent writer got there first.
func (r *ScoreRepo) Upsert(ctx context.Context, q Querier, s *model.VeracityScore, expectedVersion int64) error {
	if expectedVersion == 0 {
		tag, err := q.Exec(ctx, `
			INSERT INTO veracity_scores (target_type, target_id, score, consensus_score,
			                             challenge_impact, evidence_count, version, expires_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, NOW())
			ON CONFLICT (target_type, target_id) DO NOTHING`,
			s.TargetType, s.TargetID, s.Score, s.ConsensusScore,
			s.ChallengeImpact, s.EvidenceCount, s.ExpiresAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	tag, err := q.Exec(ctx, `
		UPDATE veracity_scores
		SET score = $1, consensus_score = $2, challenge_impact = $3,
		    evidence_count = $4, version = version + 1, expires_at = $5, updated_at = NOW()
		WHERE target_type = $6 AND target_id = $7 AND version = $8`,
		s.Score, s.ConsensusScore, s.ChallengeImpact, s.EvidenceCount,
		s.ExpiresAt, s.TargetType, s.TargetID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// AppendHistory inserts one append-only score-change record and returns its ID.
func (r *ScoreRepo) AppendHistory(ctx context.Context, q Querier, e *model.ScoreHistoryEntry) (string, error) {
	entryID := uuid.NewString()
	_, err := q.Exec(ctx, `
		INSERT INTO veracity_score_history (entry_id, target_type, target_id,
		                                    old_score, new_score, cause, triggered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entryID, e.TargetType, e.TargetID, e.OldScore, e.NewScore, e.Cause, e.TriggeredBy)
	return entryID, err
}

// History returns the ordered score-change log for a target, newest first.
func (r *ScoreRepo) History(ctx context.Context, tt model.TargetType, id string, limit int) ([]model.ScoreHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT entry_id, old_score, new_score, cause, triggered_by, created_at
		FROM veracity_score_history
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at DESC, entry_id
		LIMIT $3`,
		tt, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ScoreHistoryEntry
	for rows.Next() {
		e := model.ScoreHistoryEntry{TargetType: tt, TargetID: id}
		if err := rows.Scan(&e.EntryID, &e.OldScore, &e.NewScore, &e.Cause, &e.TriggeredBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExpiredTargets returns targets whose cache row expiry has passed, for the
// self-heal sweep. Promoted targets never expire.
func (r *ScoreRepo) ExpiredTargets(ctx context.Context, limit int) ([]model.TargetRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vs.target_type, vs.target_id
		FROM veracity_scores vs
		JOIN targets t ON t.target_type = vs.target_type AND t.target_id = vs.target_id
		WHERE vs.expires_at < NOW() AND t.level > 0
		ORDER BY vs.expires_at
		LIMIT $1`, limit)
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

// AcquireTargetLock takes the transaction-scoped advisory lock that
// serializes recomputation per target. Cross-target recomputes proceed in
// parallel; two writers on the same target queue behind this lock.
func (r *ScoreRepo) AcquireTargetLock(ctx context.Context, tx pgx.Tx, key string) error {
	return lockTarget(ctx, tx, key)
}

// OpenChallengeCount returns the number of unresolved challenges for a target.
func (r *ScoreRepo) OpenChallengeCount(ctx context.Context, q Querier, tt model.TargetType, id string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM challenges
		WHERE target_type = $1 AND target_id = $2 AND status = 'open'`,
		tt, id).Scan(&n)
	return n, err
}

// Stats returns global engine statistics.
func (r *ScoreRepo) Stats(ctx context.Context) (*model.StatsResponse, error) {
	var s model.StatsResponse
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM targets),
			(SELECT COUNT(*) FROM evidence WHERE deleted = false),
			(SELECT COUNT(*) FROM sources),
			(SELECT COUNT(*) FROM consensus_votes),
			(SELECT COUNT(*) FROM challenges WHERE status = 'open'),
			(SELECT COUNT(*) FROM targets WHERE level = 0),
			(SELECT COALESCE(AVG(score), 0) FROM veracity_scores)`).
		Scan(&s.TotalTargets, &s.TotalEvidence, &s.TotalSources, &s.TotalVotes,
			&s.OpenChallenges, &s.PromotedTargets, &s.AverageScore)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
