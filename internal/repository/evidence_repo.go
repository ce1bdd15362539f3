package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
	"github.com/Kevin-Kurka/rabbithole-sub007/pkg/hash"
)

type EvidenceRepo struct {
	pool *pgxpool.Pool
}

func NewEvidenceRepo(pool *pgxpool.Pool) *EvidenceRepo {
	return &EvidenceRepo{pool: pool}
}

// Apply upserts an evidence row from an inbound mutation event inside one
// transaction. It ensures the source and target rows exist (auto-create on
// first reference), rejects mutations against promoted targets, and notifies
// the recompute worker. Returns the evidence ID.
func (r *EvidenceRepo) Apply(ctx context.Context, ev model.EvidenceEvent) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	// Serialize against promotion on the same target before reading the
	// level, so the check cannot pass while a promotion commits.
	target := model.TargetRef{Type: model.TargetType(ev.TargetType), ID: ev.TargetID}
	if err := lockTarget(ctx, tx, target.Key()); err != nil {
		return "", err
	}

	// Promoted targets are immutable: no new or changed evidence.
	var level int
	err = tx.QueryRow(ctx, `
		SELECT level FROM targets WHERE target_type = $1 AND target_id = $2`,
		ev.TargetType, ev.TargetID).Scan(&level)
	if err != nil && err != pgx.ErrNoRows {
		return "", err
	}
	if err == nil && level == model.LevelVerified {
		return "", ErrPromotedTarget
	}

	// Ensure target exists (auto-create on first evidence)
	_, err = tx.Exec(ctx, `
		INSERT INTO targets (target_type, target_id) VALUES ($1, $2)
		ON CONFLICT (target_type, target_id) DO NOTHING`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return "", err
	}

	// Ensure source exists (created on first reference; content hash for dedup)
	contentHash := hash.ContentHash(ev.SourceContent)
	_, err = tx.Exec(ctx, `
		INSERT INTO sources (source_id, source_type, content_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id) DO UPDATE SET updated_at = NOW()`,
		ev.SourceID, ev.SourceType, contentHash)
	if err != nil {
		return "", err
	}

	evidenceID := ev.EvidenceID
	if evidenceID == "" {
		evidenceID = uuid.NewString()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO evidence (evidence_id, target_type, target_id, source_id, submitter_id,
		                      evidence_type, base_weight, confidence, temporal_relevance,
		                      verified, peer_reviewed, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (evidence_id) DO UPDATE
		SET evidence_type = EXCLUDED.evidence_type,
		    base_weight = EXCLUDED.base_weight,
		    confidence = EXCLUDED.confidence,
		    temporal_relevance = EXCLUDED.temporal_relevance,
		    verified = EXCLUDED.verified,
		    peer_reviewed = EXCLUDED.peer_reviewed,
		    deleted = EXCLUDED.deleted,
		    updated_at = NOW()`,
		evidenceID, ev.TargetType, ev.TargetID, ev.SourceID, ev.SubmitterID,
		ev.Type, ev.BaseWeight, ev.Confidence, ev.TemporalRelevance,
		ev.Verified, ev.PeerReviewed, ev.Deleted)
	if err != nil {
		return "", err
	}

	// Wake the recompute worker for this target and the source's other targets.
	_, err = tx.Exec(ctx, `SELECT pg_notify('score_events', $1 || ':' || $2)`,
		ev.TargetType, ev.TargetID)
	if err != nil {
		return "", err
	}

	return evidenceID, tx.Commit(ctx)
}

// ListForTarget returns all non-deleted evidence for a target together with
// each source's current credibility.
func (r *EvidenceRepo) ListForTarget(ctx context.Context, q Querier, tt model.TargetType, id string) ([]model.Evidence, map[string]float64, error) {
	rows, err := q.Query(ctx, `
		SELECT e.evidence_id, e.source_id, e.evidence_type, e.base_weight, e.confidence,
		       e.temporal_relevance, e.verified, e.peer_reviewed, s.credibility
		FROM evidence e
		JOIN sources s ON s.source_id = e.source_id
		WHERE e.target_type = $1 AND e.target_id = $2 AND e.deleted = false`,
		tt, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var evidence []model.Evidence
	credibility := make(map[string]float64)
	for rows.Next() {
		var ev model.Evidence
		var cred float64
		err := rows.Scan(&ev.EvidenceID, &ev.SourceID, &ev.Type, &ev.BaseWeight,
			&ev.Confidence, &ev.TemporalRelevance, &ev.Verified, &ev.PeerReviewed, &cred)
		if err != nil {
			return nil, nil, err
		}
		ev.TargetType = tt
		ev.TargetID = id
		evidence = append(evidence, ev)
		credibility[ev.SourceID] = cred
	}
	return evidence, credibility, rows.Err()
}

// SourceStats aggregates a source's evidence history: verified fraction,
// open-challenge fraction, and alignment with each target's settled majority.
func (r *EvidenceRepo) SourceStats(ctx context.Context, sourceID string) (verified, challenged, aligned, judged, total int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE e.verified),
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM challenges c
				WHERE c.target_type = e.target_type AND c.target_id = e.target_id
				  AND c.status = 'open')),
			COUNT(*) FILTER (WHERE
				(e.evidence_type = 'supporting' AND vs.consensus_score > 0.5) OR
				(e.evidence_type = 'refuting'  AND vs.consensus_score < 0.5)),
			COUNT(*) FILTER (WHERE
				e.evidence_type IN ('supporting', 'refuting')
				AND vs.consensus_score IS NOT NULL AND vs.consensus_score <> 0.5)
		FROM evidence e
		LEFT JOIN veracity_scores vs
		       ON vs.target_type = e.target_type AND vs.target_id = e.target_id
		WHERE e.source_id = $1 AND e.deleted = false`,
		sourceID).Scan(&total, &verified, &challenged, &aligned, &judged)
	return
}

// UpdateSourceCredibility persists a recomputed credibility score.
func (r *EvidenceRepo) UpdateSourceCredibility(ctx context.Context, sourceID string, credibility float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sources SET credibility = $1, updated_at = NOW() WHERE source_id = $2`,
		credibility, sourceID)
	return err
}

// SourcesForTarget returns the distinct sources citing a target, for cascading
// credibility recomputation after a target's consensus settles.
func (r *EvidenceRepo) SourcesForTarget(ctx context.Context, tt model.TargetType, id string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT source_id FROM evidence
		WHERE target_type = $1 AND target_id = $2 AND deleted = false`,
		tt, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		ids = append(ids, sid)
	}
	return ids, rows.Err()
}

// SubmitterQuality returns the average effective verification outcome of a
// user's evidence submissions, feeding the reputation engine.
func (r *EvidenceRepo) SubmitterQuality(ctx context.Context, userID string) (quality float64, count int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(CASE WHEN verified THEN 1.0 ELSE 0.0 END), 0), COUNT(*)
		FROM evidence
		WHERE submitter_id = $1 AND deleted = false`,
		userID).Scan(&quality, &count)
	return
}
