package model

import "time"

// ChallengeStatus is the lifecycle state of a dispute.
type ChallengeStatus string

const (
	ChallengeOpen     ChallengeStatus = "open"
	ChallengeResolved ChallengeStatus = "resolved"
)

// ValidChallengeStatuses are the allowed challenge status values.
var ValidChallengeStatuses = map[ChallengeStatus]bool{
	ChallengeOpen:     true,
	ChallengeResolved: true,
}

// Position is one argued stance inside a challenge, carrying its own
// evidence-derived credibility score.
type Position struct {
	PositionID  string    `json:"positionId"`
	ChallengeID string    `json:"challengeId"`
	Statement   string    `json:"statement"`
	Category    string    `json:"category"`
	Credibility float64   `json:"credibility"`
	AutoAmend   bool      `json:"autoAmend"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ChallengeEvent is the inbound mutation event for challenge status changes.
type ChallengeEvent struct {
	ChallengeID string `json:"challengeId,omitempty"`
	TargetType  string `json:"targetType"`
	TargetID    string `json:"targetId"`
	RaisedBy    string `json:"raisedBy,omitempty"`
	OldStatus   string `json:"oldStatus,omitempty"`
	NewStatus   string `json:"newStatus"`
	Resolution  string `json:"resolution,omitempty"`
}
