package model

import "time"

// VeracityScore is the materialized score cache row — exactly one per target.
// Always derived, never directly written by a user action. Version supports
// optimistic-concurrency writes; ExpiresAt drives the self-heal sweep.
type VeracityScore struct {
	TargetType      TargetType `json:"targetType"`
	TargetID        string     `json:"targetId"`
	Score           float64    `json:"score"`
	ConsensusScore  float64    `json:"consensusScore"`
	ChallengeImpact float64    `json:"challengeImpact"`
	EvidenceCount   int        `json:"evidenceCount"`
	Version         int64      `json:"-"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ScoreHistoryEntry is one append-only audit record of a score change.
// The newest entry's NewScore always equals the current cached score.
type ScoreHistoryEntry struct {
	EntryID     string     `json:"entryId"`
	TargetType  TargetType `json:"targetType"`
	TargetID    string     `json:"targetId"`
	OldScore    float64    `json:"oldScore"`
	NewScore    float64    `json:"newScore"`
	Cause       string     `json:"cause"`
	TriggeredBy string     `json:"triggeredBy"`
	CreatedAt   time.Time  `json:"timestamp"`
}

// ScoreResponse is the API response for score lookups.
type ScoreResponse struct {
	TargetType      TargetType `json:"targetType"`
	TargetID        string     `json:"targetId"`
	Score           float64    `json:"score"`
	ConsensusScore  float64    `json:"consensusScore"`
	ChallengeImpact float64    `json:"challengeImpact"`
	EvidenceCount   int        `json:"evidenceCount"`
	ExpiresAt       time.Time  `json:"expiresAt"`
}

// RefreshRequest is the API request body for a forced synchronous recompute.
type RefreshRequest struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Reason     string `json:"reason"`
}

// RefreshResponse is the API response after a forced recompute.
type RefreshResponse struct {
	ScoreRecordID string  `json:"scoreRecordId"`
	Score         float64 `json:"score"`
}
