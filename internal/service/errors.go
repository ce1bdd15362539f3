package service

import "errors"

// Engine error taxonomy. Out-of-domain score values are never surfaced as
// errors — they are clamped at the point of computation.
var (
	// ErrTargetMissing — recompute requested for a target that no longer
	// exists. Callers treat it as a no-op.
	ErrTargetMissing = errors.New("target not found")

	// ErrConflict — lost the per-target exclusive section (optimistic
	// version check failed). Retried with backoff before surfacing.
	ErrConflict = errors.New("concurrent score update conflict")

	// ErrImmutableTarget — attempt to attach evidence or a challenge to an
	// already-promoted target. Fatal, user-facing, never silently ignored.
	ErrImmutableTarget = errors.New("target is promoted and immutable")

	// ErrNotPromoted — manual override requested for a target that is not
	// promoted.
	ErrNotPromoted = errors.New("target is not promoted")
)
