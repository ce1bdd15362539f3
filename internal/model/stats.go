package model

// StatsResponse is the API response for global engine statistics.
type StatsResponse struct {
	TotalTargets    int     `json:"totalTargets"`
	TotalEvidence   int     `json:"totalEvidence"`
	TotalSources    int     `json:"totalSources"`
	TotalVotes      int     `json:"totalVotes"`
	OpenChallenges  int     `json:"openChallenges"`
	PromotedTargets int     `json:"promotedTargets"`
	AverageScore    float64 `json:"averageScore"`
}
