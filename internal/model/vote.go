package model

// VoteEvent is the inbound event for a cast or updated consensus vote.
type VoteEvent struct {
	TargetType               string  `json:"targetType"`
	TargetID                 string  `json:"targetId"`
	UserID                   string  `json:"userId"`
	Value                    float64 `json:"value"`
	SubmittedEvidenceQuality float64 `json:"submittedEvidenceQuality,omitempty"`
}

// VoteResponse is the API response after casting a vote. The score itself is
// recomputed asynchronously, so the response carries only the applied weight.
type VoteResponse struct {
	Success    bool    `json:"success"`
	VoteWeight float64 `json:"voteWeight"`
}
