package service

import (
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

const (
	// Boost applied to evidence with verified peer-review status.
	PeerReviewMultiplier = 1.1

	// Credibility assumed for a source with no rated history.
	NeutralSourceCredibility = 0.5
)

// WeightService computes the effective weight of a single piece of evidence.
// Pure computation, no side effects; safe to call at arbitrary frequency.
type WeightService struct{}

func NewWeightService() *WeightService {
	return &WeightService{}
}

// EffectiveWeight calculates the post-adjustment importance of one piece of
// evidence:
//
//	effective_weight = base_weight × confidence × temporal_relevance
//	                 × source_credibility × peer_review_multiplier
//
// Missing (zero) factors default to a neutral 1.0 contribution, except source
// credibility which defaults to 0.5 for an unrated source. The result is
// clamped to [0, 1].
func (s *WeightService) EffectiveWeight(ev *model.Evidence, sourceCredibility float64) float64 {
	base := orNeutral(ev.BaseWeight, 1.0)
	confidence := orNeutral(ev.Confidence, 1.0)
	temporal := orNeutral(ev.TemporalRelevance, 1.0)
	credibility := orNeutral(sourceCredibility, NeutralSourceCredibility)

	review := 1.0
	if ev.PeerReviewed && ev.Verified {
		review = PeerReviewMultiplier
	}

	return clamp01(base * confidence * temporal * credibility * review)
}

func orNeutral(v, neutral float64) float64 {
	if v <= 0 {
		return neutral
	}
	return v
}

// clamp01 clamps a score into [0, 1]. Out-of-domain values are a defensive
// condition, never an error.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
