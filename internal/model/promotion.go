package model

import "time"

// EligibilityState is the promotion state machine position for a target.
type EligibilityState string

const (
	StateIneligible EligibilityState = "ineligible"
	StateEligible   EligibilityState = "eligible"
	StatePromoted   EligibilityState = "promoted" // terminal
)

// PromotionEligibility is the cached eligibility row — one per promotable
// target. IsEligible is never hand-set, only derived.
type PromotionEligibility struct {
	TargetType            TargetType       `json:"targetType"`
	TargetID              string           `json:"targetId"`
	MethodologyCompletion float64          `json:"methodologyCompletion"`
	WeightedConsensus     float64          `json:"weightedConsensus"`
	EvidenceQuality       float64          `json:"evidenceQuality"`
	ChallengeResolution   float64          `json:"challengeResolution"`
	OverallScore          float64          `json:"overallScore"`
	Threshold             float64          `json:"threshold"`
	VoteCount             int              `json:"voteCount"`
	IsEligible            bool             `json:"isEligible"`
	State                 EligibilityState `json:"state"`
	BlockingReasons       []string         `json:"blockingReasons"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// PromotionEventKind distinguishes automatic promotions from manual overrides.
type PromotionEventKind string

const (
	PromotionAutomatic      PromotionEventKind = "automatic"
	PromotionManualOverride PromotionEventKind = "manual_override"
)

// PromotionEvent is the append-only, immutable audit record of a promotion
// (or manual override), including the full score snapshot that justified it.
type PromotionEvent struct {
	EventID               string             `json:"eventId"`
	TargetType            TargetType         `json:"targetType"`
	TargetID              string             `json:"targetId"`
	Kind                  PromotionEventKind `json:"kind"`
	OverallScore          float64            `json:"overallScore"`
	MethodologyCompletion float64            `json:"methodologyCompletion"`
	WeightedConsensus     float64            `json:"weightedConsensus"`
	EvidenceQuality       float64            `json:"evidenceQuality"`
	ChallengeResolution   float64            `json:"challengeResolution"`
	Threshold             float64            `json:"threshold"`
	Actor                 string             `json:"actor,omitempty"`
	Reason                string             `json:"reason,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
}

// MethodologyProgress tracks completed methodology steps per target.
type MethodologyProgress struct {
	TargetType     TargetType `json:"targetType"`
	TargetID       string     `json:"targetId"`
	CompletedSteps int        `json:"completedSteps"`
	TotalSteps     int        `json:"totalSteps"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// MethodologyEvent is the inbound event for a completed methodology step.
type MethodologyEvent struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	StepID     string `json:"stepId"`
}

// OverrideRequest is the API request body for a logged manual override
// reverting a promoted target to mutable status.
type OverrideRequest struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Actor      string `json:"actor"`
	Reason     string `json:"reason"`
}
