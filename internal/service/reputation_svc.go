package service

import (
	"math"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

const (
	evidenceQualityWeight    = 0.40
	voteAccuracyWeight       = 0.30
	methodologyWeight        = 0.20
	challengeQualityWeight   = 0.10

	// Default accuracy for users with fewer than 10 judged votes.
	defaultVoteAccuracy   = 0.5
	minVotesForAccuracy   = 10

	// Default evidence quality for users with no verified submissions yet.
	defaultEvidenceQuality = 0.5
	minEvidenceForQuality  = 3

	// Vote weight band: new users start near the midpoint, not at zero.
	voteWeightFloor = 0.5
	voteWeightSpan  = 1.5
)

// ReputationService aggregates a user's historical evidence and vote quality
// into a reputation score, which determines that user's vote weight in
// community decisions.
type ReputationService struct{}

func NewReputationService() *ReputationService {
	return &ReputationService{}
}

// Overall calculates the blended reputation:
//
//	overall = (evidence_quality × 0.40) + (vote_accuracy × 0.30)
//	        + (methodology_completion × 0.20) + (challenge_quality × 0.10)
func (s *ReputationService) Overall(m *model.ReputationMetric) float64 {
	evidenceQuality := s.EvidenceQualityFactor(m.EvidenceQuality, m.EvidenceCount)
	voteAccuracy := s.VoteAccuracyFactor(m.VoteAccuracy, m.VoteCount)

	score := evidenceQuality*evidenceQualityWeight +
		voteAccuracy*voteAccuracyWeight +
		clamp01(m.MethodologyCompletion)*methodologyWeight +
		clamp01(m.ChallengeQuality)*challengeQualityWeight

	return math.Min(score, 1.0)
}

// EvidenceQualityFactor returns the measured quality for users with enough
// verified submissions, or the neutral default for newcomers.
func (s *ReputationService) EvidenceQualityFactor(quality float64, evidenceCount int) float64 {
	if evidenceCount < minEvidenceForQuality {
		return defaultEvidenceQuality
	}
	return clamp01(quality)
}

// VoteAccuracyFactor returns the accuracy rate for users with 10+ judged
// votes, or the neutral default for users with fewer.
func (s *ReputationService) VoteAccuracyFactor(accuracy float64, voteCount int) float64 {
	if voteCount < minVotesForAccuracy {
		return defaultVoteAccuracy
	}
	return clamp01(accuracy)
}

// VoteWeight derives a user's vote weight from overall reputation:
//
//	weight = 0.5 + 1.5 × overall
//
// giving range [0.5, 2.0] so early participation is never disproportionately
// discounted.
func (s *ReputationService) VoteWeight(overall float64) float64 {
	return voteWeightFloor + voteWeightSpan*clamp01(overall)
}
