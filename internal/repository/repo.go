package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// read queries can run either standalone or inside a recompute transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	// ErrPromotedTarget — mutation attempted against a promoted (level-0)
	// target. Promoted targets are immutable.
	ErrPromotedTarget = errors.New("target is promoted and immutable")

	// ErrVersionConflict — optimistic version check failed on a cache row
	// write. The caller retries the recompute.
	ErrVersionConflict = errors.New("score row version conflict")

	// ErrTargetMissing — write addressed a target that does not exist.
	ErrTargetMissing = errors.New("target not found")

	// ErrChallengeNotFound — resolution addressed a challenge that does not
	// exist or is already resolved.
	ErrChallengeNotFound = errors.New("open challenge not found")
)

// lockTarget takes the transaction-scoped advisory lock for one target,
// keyed on the canonical "type:id" string. Every transaction that reads the
// target's level before writing (evidence, votes, challenges, promotion)
// takes this same lock, so a level check can never race a concurrent
// promotion commit.
func lockTarget(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return err
}
