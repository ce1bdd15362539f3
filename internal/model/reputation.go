package model

import "time"

// ReputationMetric is one row per user: aggregated quality components,
// overall reputation in [0,1] and the derived vote weight in [0.5, 2.0].
type ReputationMetric struct {
	UserID                string    `json:"userId"`
	EvidenceQuality       float64   `json:"evidenceQuality"`
	VoteAccuracy          float64   `json:"voteAccuracy"`
	MethodologyCompletion float64   `json:"methodologyCompletion"`
	ChallengeQuality      float64   `json:"challengeQuality"`
	Overall               float64   `json:"overall"`
	VoteWeight            float64   `json:"voteWeight"`
	EvidenceCount         int       `json:"evidenceCount"`
	VoteCount             int       `json:"voteCount"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ReputationResponse is the API response for reputation lookups.
type ReputationResponse struct {
	UserID     string  `json:"userId"`
	Overall    float64 `json:"overall"`
	VoteWeight float64 `json:"voteWeight"`
	Components struct {
		EvidenceQuality       float64 `json:"evidenceQuality"`
		VoteAccuracy          float64 `json:"voteAccuracy"`
		MethodologyCompletion float64 `json:"methodologyCompletion"`
		ChallengeQuality      float64 `json:"challengeQuality"`
	} `json:"components"`
}
