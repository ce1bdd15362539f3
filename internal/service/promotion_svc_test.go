package service

import (
	"math"
	"strings"
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func newTestPromotionService(threshold float64) *PromotionService {
	return NewPromotionService(nil, nil, nil, nil, NewWeightService(), threshold, nil)
}

func TestOverallScore_Blend(t *testing.T) {
	svc := newTestPromotionService(0.80)

	in := EligibilityInputs{
		MethodologyCompletion: 1.0,
		WeightedConsensus:     0.864,
		EvidenceQuality:       0.9,
		OpenChallenges:        0,
	}

	// 0.30×1.0 + 0.30×0.864 + 0.25×0.9 + 0.15×1.0 = 0.9342
	want := 0.30 + 0.30*0.864 + 0.25*0.9 + 0.15
	if got := svc.OverallScore(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("overall = %.6f, want %.6f", got, want)
	}
}

func TestEvaluate_AllGatesPass(t *testing.T) {
	svc := newTestPromotionService(0.80)

	// Five equal-weight votes: (0.95+0.90+0.85+0.70+0.92)/5 = 0.864
	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 1.0,
		WeightedConsensus:     0.864,
		VoteCount:             5,
		EvidenceQuality:       0.9,
		OpenChallenges:        0,
	})

	if !e.IsEligible {
		t.Fatalf("expected eligible, blocked by: %v", e.BlockingReasons)
	}
	if e.State != model.StateEligible {
		t.Errorf("state = %s, want %s", e.State, model.StateEligible)
	}
	if len(e.BlockingReasons) != 0 {
		t.Errorf("blocking reasons = %v, want none", e.BlockingReasons)
	}
}

func TestEvaluate_MethodologyGateIsBinary(t *testing.T) {
	svc := newTestPromotionService(0.80)

	// 99% complete fails the gate even with a perfect weighted sum elsewhere.
	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 0.99,
		WeightedConsensus:     1.0,
		VoteCount:             50,
		EvidenceQuality:       1.0,
		OpenChallenges:        0,
	})

	if e.IsEligible {
		t.Fatal("99% methodology completion must not pass")
	}
	if !hasReason(e.BlockingReasons, "methodology") {
		t.Errorf("expected a methodology blocking reason, got %v", e.BlockingReasons)
	}
}

func TestEvaluate_OpenChallengesBlock(t *testing.T) {
	svc := newTestPromotionService(0.80)

	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 1.0,
		WeightedConsensus:     0.95,
		VoteCount:             10,
		EvidenceQuality:       0.95,
		OpenChallenges:        1,
	})

	if e.IsEligible {
		t.Fatal("a single open challenge must block promotion")
	}
	if !hasReason(e.BlockingReasons, "open challenge") {
		t.Errorf("expected an open-challenge blocking reason, got %v", e.BlockingReasons)
	}
	if e.ChallengeResolution != 0 {
		t.Errorf("challenge resolution = %.2f, want 0", e.ChallengeResolution)
	}
}

func TestEvaluate_InsufficientVotes(t *testing.T) {
	svc := newTestPromotionService(0.80)

	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 1.0,
		WeightedConsensus:     1.0,
		VoteCount:             4,
		EvidenceQuality:       1.0,
		OpenChallenges:        0,
	})

	if e.IsEligible {
		t.Fatal("4 votes must not satisfy the participation floor")
	}
	if !hasReason(e.BlockingReasons, "insufficient votes") {
		t.Errorf("expected an insufficient-votes reason, got %v", e.BlockingReasons)
	}
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	svc := newTestPromotionService(0.80)

	// Gates pass but the blend lands under 0.80:
	// 0.30 + 0.30×0.70 + 0.25×0.40 + 0.15 = 0.76
	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 1.0,
		WeightedConsensus:     0.70,
		VoteCount:             8,
		EvidenceQuality:       0.40,
		OpenChallenges:        0,
	})

	if e.IsEligible {
		t.Fatalf("overall %.4f should be below threshold", e.OverallScore)
	}
	if !hasReason(e.BlockingReasons, "below threshold") {
		t.Errorf("expected a below-threshold reason, got %v", e.BlockingReasons)
	}
}

func TestEvaluate_AllReasonsReported(t *testing.T) {
	svc := newTestPromotionService(0.80)

	// Everything wrong at once: every gate reports, not just the first.
	e := svc.Evaluate(EligibilityInputs{
		MethodologyCompletion: 0.5,
		WeightedConsensus:     0.2,
		VoteCount:             1,
		EvidenceQuality:       0.1,
		OpenChallenges:        3,
	})

	if len(e.BlockingReasons) != 4 {
		t.Errorf("blocking reasons = %v, want all 4 gates reported", e.BlockingReasons)
	}
	if e.State != model.StateIneligible {
		t.Errorf("state = %s, want %s", e.State, model.StateIneligible)
	}
}

func TestEvaluate_InvalidThresholdFallsBack(t *testing.T) {
	svc := newTestPromotionService(0)

	e := svc.Evaluate(EligibilityInputs{MethodologyCompletion: 1.0, VoteCount: 5})
	if e.Threshold != DefaultPromotionThreshold {
		t.Errorf("threshold = %.2f, want default %.2f", e.Threshold, DefaultPromotionThreshold)
	}
}

func hasReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}
