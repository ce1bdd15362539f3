package service

import (
	"math"
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

const eps = 1e-9

func TestEffectiveWeight_AllFactors(t *testing.T) {
	svc := NewWeightService()
	ev := &model.Evidence{
		BaseWeight:        0.8,
		Confidence:        0.9,
		TemporalRelevance: 1.0,
		Verified:          true,
		PeerReviewed:      true,
	}

	// 0.8 × 0.9 × 1.0 × 0.9 × 1.1 = 0.7128
	got := svc.EffectiveWeight(ev, 0.9)
	want := 0.8 * 0.9 * 1.0 * 0.9 * 1.1
	if math.Abs(got-want) > eps {
		t.Errorf("effective weight = %.6f, want %.6f", got, want)
	}
}

func TestEffectiveWeight_UnratedSourceIsNeutral(t *testing.T) {
	svc := NewWeightService()
	ev := &model.Evidence{BaseWeight: 1.0, Confidence: 1.0, TemporalRelevance: 1.0}

	got := svc.EffectiveWeight(ev, 0)
	if math.Abs(got-0.5) > eps {
		t.Errorf("unrated source weight = %.6f, want 0.5", got)
	}
}

func TestEffectiveWeight_MissingFactorsDefaultNeutral(t *testing.T) {
	svc := NewWeightService()
	// All factors zero: base/confidence/temporal default to 1.0, source to 0.5.
	got := svc.EffectiveWeight(&model.Evidence{}, 0)
	if math.Abs(got-0.5) > eps {
		t.Errorf("all-defaults weight = %.6f, want 0.5", got)
	}
}

func TestEffectiveWeight_PeerReviewRequiresVerification(t *testing.T) {
	svc := NewWeightService()

	// Peer-reviewed but unverified: no multiplier.
	unverified := &model.Evidence{BaseWeight: 0.5, Confidence: 1, TemporalRelevance: 1, PeerReviewed: true}
	if got := svc.EffectiveWeight(unverified, 1.0); math.Abs(got-0.5) > eps {
		t.Errorf("unverified peer review weight = %.6f, want 0.5", got)
	}

	verified := &model.Evidence{BaseWeight: 0.5, Confidence: 1, TemporalRelevance: 1, PeerReviewed: true, Verified: true}
	if got := svc.EffectiveWeight(verified, 1.0); math.Abs(got-0.55) > eps {
		t.Errorf("verified peer review weight = %.6f, want 0.55", got)
	}
}

func TestEffectiveWeight_ClampedToOne(t *testing.T) {
	svc := NewWeightService()
	// 1.0 × 1.0 × 1.0 × 1.0 × 1.1 would exceed 1 without the clamp.
	ev := &model.Evidence{BaseWeight: 1, Confidence: 1, TemporalRelevance: 1, Verified: true, PeerReviewed: true}
	if got := svc.EffectiveWeight(ev, 1.0); got != 1.0 {
		t.Errorf("weight = %.6f, want clamp at 1.0", got)
	}
}

func TestEffectiveWeight_MonotoneInCredibility(t *testing.T) {
	svc := NewWeightService()
	ev := &model.Evidence{BaseWeight: 0.7, Confidence: 0.8, TemporalRelevance: 0.9}

	prev := -1.0
	for _, cred := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		got := svc.EffectiveWeight(ev, cred)
		if got < prev {
			t.Fatalf("weight decreased as credibility rose: %.6f after %.6f", got, prev)
		}
		prev = got
	}
}
