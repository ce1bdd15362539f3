package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

type ChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewChallengeRepo(pool *pgxpool.Pool) *ChallengeRepo {
	return &ChallengeRepo{pool: pool}
}

// Apply records a challenge status change in one transaction. New challenges
// against promoted targets are rejected; the recompute worker is notified.
func (r *ChallengeRepo) Apply(ctx context.Context, ev model.ChallengeEvent) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	target := model.TargetRef{Type: model.TargetType(ev.TargetType), ID: ev.TargetID}
	if err := lockTarget(ctx, tx, target.Key()); err != nil {
		return "", err
	}

	exists := true
	var level int
	err = tx.QueryRow(ctx, `
		SELECT level FROM targets WHERE target_type = $1 AND target_id = $2`,
		ev.TargetType, ev.TargetID).Scan(&level)
	if err == pgx.ErrNoRows {
		exists = false
		err = nil
	}
	if err != nil {
		return "", err
	}
	if challengeBlocked(exists, level, ev.NewStatus) {
		return "", ErrPromotedTarget
	}
	if !exists {
		// Challenging a never-seen target creates it, same as first evidence.
		_, err = tx.Exec(ctx, `
			INSERT INTO targets (target_type, target_id) VALUES ($1, $2)
			ON CONFLICT (target_type, target_id) DO NOTHING`,
			ev.TargetType, ev.TargetID)
		if err != nil {
			return "", err
		}
	}

	challengeID := ev.ChallengeID
	if challengeID == "" {
		challengeID = uuid.NewString()
	}

	if ev.NewStatus == string(model.ChallengeResolved) {
		tag, err := tx.Exec(ctx, `
			UPDATE challenges
			SET status = 'resolved', resolution = $1, resolved_at = NOW()
			WHERE challenge_id = $2 AND status = 'open'`,
			ev.Resolution, challengeID)
		if err != nil {
			return "", err
		}
		if tag.RowsAffected() == 0 {
			return "", ErrChallengeNotFound
		}
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO challenges (challenge_id, target_type, target_id, raised_by, status)
			VALUES ($1, $2, $3, $4, 'open')
			ON CONFLICT (challenge_id) DO UPDATE SET status = 'open', resolved_at = NULL`,
			challengeID, ev.TargetType, ev.TargetID, ev.RaisedBy)
		if err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(ctx, `SELECT pg_notify('score_events', $1 || ':' || $2)`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return "", err
	}

	return challengeID, tx.Commit(ctx)
}

// challengeBlocked reports whether the immutability rule rejects a status
// change: only an existing promoted target refuses new challenges. A level
// read that returned no row carries no meaning — the target is about to be
// auto-created at the mutable tier.
func challengeBlocked(exists bool, level int, newStatus string) bool {
	return exists && level == model.LevelVerified && newStatus == string(model.ChallengeOpen)
}

// ResolutionQuality returns the fraction of a user's raised challenges that
// were resolved in their favor, feeding the reputation engine.
func (r *ChallengeRepo) ResolutionQuality(ctx context.Context, userID string) (quality float64, count int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(CASE WHEN resolution = 'upheld' THEN 1.0 ELSE 0.0 END), 0), COUNT(*)
		FROM challenges
		WHERE raised_by = $1 AND status = 'resolved'`,
		userID).Scan(&quality, &count)
	return
}

// UpsertPosition stores a position's credibility and auto-amend flag.
func (r *ChallengeRepo) UpsertPosition(ctx context.Context, p *model.Position) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO positions (position_id, challenge_id, statement, category, credibility, auto_amend)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (position_id) DO UPDATE
		SET credibility = EXCLUDED.credibility, auto_amend = EXCLUDED.auto_amend`,
		p.PositionID, p.ChallengeID, p.Statement, p.Category, p.Credibility, p.AutoAmend)
	return err
}

// PositionsForChallenge returns the argued positions of a challenge.
func (r *ChallengeRepo) PositionsForChallenge(ctx context.Context, challengeID string) ([]model.Position, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT position_id, statement, category, credibility, auto_amend, created_at
		FROM positions WHERE challenge_id = $1
		ORDER BY created_at`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		p := model.Position{ChallengeID: challengeID}
		if err := rows.Scan(&p.PositionID, &p.Statement, &p.Category, &p.Credibility, &p.AutoAmend, &p.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
