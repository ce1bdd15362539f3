package service

const (
	credVerifiedWeight  = 0.4
	credChallengeWeight = 0.3
	credAlignmentWeight = 0.3
)

// SourceStats is the aggregated evidence history of one source.
type SourceStats struct {
	EvidenceCount  int // non-deleted evidence citing the source
	VerifiedCount  int // evidence marked verified
	ChallengedCount int // evidence currently under open challenge
	AlignedCount   int // supporting/refuting evidence matching the target's eventual majority
	JudgedCount    int // supporting/refuting evidence whose target has a settled majority
}

// CredibilityService aggregates a source's evidence history into a
// credibility score consumed by the evidence weight calculation.
type CredibilityService struct{}

func NewCredibilityService() *CredibilityService {
	return &CredibilityService{}
}

// Credibility computes:
//
//	credibility = 0.4×verified_ratio + 0.3×(1 − challenge_ratio) + 0.3×consensus_alignment
//
// clamped to [0, 1]. A source with no evidence history is neutral (0.5).
func (s *CredibilityService) Credibility(stats SourceStats) float64 {
	if stats.EvidenceCount == 0 {
		return NeutralSourceCredibility
	}

	verifiedRatio := float64(stats.VerifiedCount) / float64(stats.EvidenceCount)
	challengeRatio := float64(stats.ChallengedCount) / float64(stats.EvidenceCount)

	// Alignment is neutral until at least one of the source's targets has a
	// settled majority to judge against.
	alignment := NeutralSourceCredibility
	if stats.JudgedCount > 0 {
		alignment = float64(stats.AlignedCount) / float64(stats.JudgedCount)
	}

	score := credVerifiedWeight*verifiedRatio +
		credChallengeWeight*(1-challengeRatio) +
		credAlignmentWeight*alignment

	return clamp01(score)
}
