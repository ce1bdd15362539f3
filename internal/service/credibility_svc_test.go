package service

import (
	"math"
	"testing"
)

func TestCredibility_NoHistoryIsNeutral(t *testing.T) {
	svc := NewCredibilityService()
	if got := svc.Credibility(SourceStats{}); got != NeutralSourceCredibility {
		t.Errorf("fresh source credibility = %.3f, want %.3f", got, NeutralSourceCredibility)
	}
}

func TestCredibility_FullyVerifiedUnchallenged(t *testing.T) {
	svc := NewCredibilityService()
	stats := SourceStats{
		EvidenceCount: 10,
		VerifiedCount: 10,
		AlignedCount:  8,
		JudgedCount:   8,
	}

	// 0.4×1.0 + 0.3×1.0 + 0.3×1.0 = 1.0
	if got := svc.Credibility(stats); got != 1.0 {
		t.Errorf("credibility = %.6f, want 1.0", got)
	}
}

func TestCredibility_MixedHistory(t *testing.T) {
	svc := NewCredibilityService()
	stats := SourceStats{
		EvidenceCount:   10,
		VerifiedCount:   6,
		ChallengedCount: 2,
		AlignedCount:    3,
		JudgedCount:     4,
	}

	// 0.4×0.6 + 0.3×0.8 + 0.3×0.75 = 0.705
	want := 0.4*0.6 + 0.3*0.8 + 0.3*0.75
	if got := svc.Credibility(stats); math.Abs(got-want) > 1e-9 {
		t.Errorf("credibility = %.6f, want %.6f", got, want)
	}
}

func TestCredibility_UnjudgedAlignmentIsNeutral(t *testing.T) {
	svc := NewCredibilityService()
	stats := SourceStats{
		EvidenceCount: 4,
		VerifiedCount: 4,
	}

	// 0.4×1.0 + 0.3×1.0 + 0.3×0.5 = 0.85
	if got := svc.Credibility(stats); math.Abs(got-0.85) > 1e-9 {
		t.Errorf("credibility = %.6f, want 0.85", got)
	}
}

func TestCredibility_AllChallengedSinks(t *testing.T) {
	svc := NewCredibilityService()
	heavilyChallenged := SourceStats{
		EvidenceCount:   5,
		ChallengedCount: 5,
		JudgedCount:     5,
	}
	clean := SourceStats{
		EvidenceCount: 5,
		JudgedCount:   5,
	}

	if svc.Credibility(heavilyChallenged) >= svc.Credibility(clean) {
		t.Error("fully challenged source should score below a clean one")
	}
}
