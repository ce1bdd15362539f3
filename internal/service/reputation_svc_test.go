package service

import (
	"math"
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func TestOverall_NewUserIsNearNeutral(t *testing.T) {
	svc := NewReputationService()
	m := &model.ReputationMetric{
		EvidenceQuality:  0.5,
		VoteAccuracy:     0.5,
		ChallengeQuality: 0.5,
	}

	// Defaults kick in below minimum activity:
	// 0.5×0.40 + 0.5×0.30 + 0×0.20 + 0.5×0.10 = 0.40
	got := svc.Overall(m)
	if math.Abs(got-0.40) > 1e-9 {
		t.Errorf("new user overall = %.6f, want 0.40", got)
	}
}

func TestOverall_EstablishedUser(t *testing.T) {
	svc := NewReputationService()
	m := &model.ReputationMetric{
		EvidenceQuality:       0.9,
		EvidenceCount:         20,
		VoteAccuracy:          0.8,
		VoteCount:             30,
		MethodologyCompletion: 1.0,
		ChallengeQuality:      0.6,
	}

	// 0.9×0.40 + 0.8×0.30 + 1.0×0.20 + 0.6×0.10 = 0.86
	got := svc.Overall(m)
	if math.Abs(got-0.86) > 1e-9 {
		t.Errorf("overall = %.6f, want 0.86", got)
	}
}

func TestOverall_ThinHistoryUsesDefaults(t *testing.T) {
	svc := NewReputationService()

	// 9 judged votes is under the 10-vote minimum: measured accuracy ignored.
	thin := &model.ReputationMetric{VoteAccuracy: 1.0, VoteCount: 9, EvidenceCount: 20, EvidenceQuality: 0.5, ChallengeQuality: 0.5}
	judged := &model.ReputationMetric{VoteAccuracy: 1.0, VoteCount: 10, EvidenceCount: 20, EvidenceQuality: 0.5, ChallengeQuality: 0.5}

	if svc.Overall(thin) >= svc.Overall(judged) {
		t.Error("perfect accuracy below the vote minimum should not count")
	}
}

func TestVoteWeight_Band(t *testing.T) {
	svc := NewReputationService()

	tests := []struct {
		overall float64
		want    float64
	}{
		{0, 0.5},
		{0.5, 1.25},
		{1.0, 2.0},
		{-1, 0.5}, // clamped
		{2, 2.0},  // clamped
	}
	for _, tt := range tests {
		if got := svc.VoteWeight(tt.overall); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("VoteWeight(%.2f) = %.3f, want %.3f", tt.overall, got, tt.want)
		}
	}
}

func TestVoteWeight_MonotoneInReputation(t *testing.T) {
	svc := NewReputationService()
	prev := -1.0
	for o := 0.0; o <= 1.0; o += 0.1 {
		w := svc.VoteWeight(o)
		if w < prev {
			t.Fatalf("vote weight decreased: %.3f after %.3f", w, prev)
		}
		prev = w
	}
}
