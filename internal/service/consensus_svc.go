package service

import (
	"math"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

const (
	// Consensus returned when a target has no supporting or refuting
	// evidence. Neutral by design so the overall formula stays total.
	NeutralConsensus = 0.5

	// Penalty per open challenge and the floor it is capped at.
	ChallengePenaltyStep = -0.05
	ChallengePenaltyMax  = -0.5
)

// ConsensusResult holds the aggregate of a target's evidence.
type ConsensusResult struct {
	Score            float64
	SupportingWeight float64
	RefutingWeight   float64
	EvidenceCount    int
}

// ConsensusService aggregates effective evidence weights into a consensus
// score and converts open-challenge counts into a penalty.
type ConsensusService struct{}

func NewConsensusService() *ConsensusService {
	return &ConsensusService{}
}

// Aggregate computes consensus_score = supporting / (supporting + refuting)
// over effective weights. Neutral and clarifying evidence is excluded from
// the ratio but still counted in EvidenceCount.
func (s *ConsensusService) Aggregate(evidence []model.WeightedEvidence) ConsensusResult {
	res := ConsensusResult{EvidenceCount: len(evidence)}

	for _, ev := range evidence {
		switch ev.Type {
		case model.EvidenceSupporting:
			res.SupportingWeight += ev.EffectiveWeight
		case model.EvidenceRefuting:
			res.RefutingWeight += ev.EffectiveWeight
		}
	}

	total := res.SupportingWeight + res.RefutingWeight
	if total == 0 {
		res.Score = NeutralConsensus
		return res
	}

	res.Score = clamp01(res.SupportingWeight / total)
	return res
}

// ChallengeImpact converts the count of currently open challenges into a
// monotonically worsening penalty:
//
//	challenge_impact = max(-0.5, -0.05 × open_count)
//
// Capped so that no amount of challenges alone can drive a score below zero.
func (s *ConsensusService) ChallengeImpact(openCount int) float64 {
	return math.Max(ChallengePenaltyMax, ChallengePenaltyStep*float64(openCount))
}

// FinalScore combines consensus and challenge impact into the target's final
// veracity score, clamped to [0, 1].
func (s *ConsensusService) FinalScore(consensus, challengeImpact float64) float64 {
	return clamp01(consensus + challengeImpact)
}
