package service

import (
	"math"
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func TestAggregate_NoEvidenceIsNeutral(t *testing.T) {
	svc := NewConsensusService()

	res := svc.Aggregate(nil)
	if res.Score != NeutralConsensus {
		t.Errorf("empty consensus = %.3f, want %.3f", res.Score, NeutralConsensus)
	}
	if res.EvidenceCount != 0 {
		t.Errorf("evidence count = %d, want 0", res.EvidenceCount)
	}
}

func TestAggregate_SupportingVsRefuting(t *testing.T) {
	svc := NewConsensusService()

	// Two supporting (0.9, 0.8) against one refuting (0.95):
	// 1.7 / 2.65 ≈ 0.6415
	res := svc.Aggregate([]model.WeightedEvidence{
		{Type: model.EvidenceSupporting, EffectiveWeight: 0.9},
		{Type: model.EvidenceSupporting, EffectiveWeight: 0.8},
		{Type: model.EvidenceRefuting, EffectiveWeight: 0.95},
	})

	want := 1.7 / 2.65
	if math.Abs(res.Score-want) > 1e-9 {
		t.Errorf("consensus = %.6f, want %.6f", res.Score, want)
	}
	if res.EvidenceCount != 3 {
		t.Errorf("evidence count = %d, want 3", res.EvidenceCount)
	}
}

func TestAggregate_NeutralEvidenceExcludedFromRatio(t *testing.T) {
	svc := NewConsensusService()

	res := svc.Aggregate([]model.WeightedEvidence{
		{Type: model.EvidenceSupporting, EffectiveWeight: 0.6},
		{Type: model.EvidenceNeutral, EffectiveWeight: 0.9},
		{Type: model.EvidenceClarifying, EffectiveWeight: 0.9},
	})

	// Only the supporting weight enters the ratio → full support.
	if res.Score != 1.0 {
		t.Errorf("consensus = %.3f, want 1.0", res.Score)
	}
	// But all evidence is still counted.
	if res.EvidenceCount != 3 {
		t.Errorf("evidence count = %d, want 3", res.EvidenceCount)
	}
}

func TestAggregate_OnlyNeutralIsNeutralScore(t *testing.T) {
	svc := NewConsensusService()

	res := svc.Aggregate([]model.WeightedEvidence{
		{Type: model.EvidenceNeutral, EffectiveWeight: 0.9},
	})
	if res.Score != NeutralConsensus {
		t.Errorf("neutral-only consensus = %.3f, want %.3f", res.Score, NeutralConsensus)
	}
}

func TestChallengeImpact(t *testing.T) {
	svc := NewConsensusService()

	tests := []struct {
		open int
		want float64
	}{
		{0, 0},
		{1, -0.05},
		{3, -0.15},
		{10, -0.5},
		{11, -0.5}, // capped
		{100, -0.5},
	}
	for _, tt := range tests {
		if got := svc.ChallengeImpact(tt.open); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ChallengeImpact(%d) = %.3f, want %.3f", tt.open, got, tt.want)
		}
	}
}

func TestFinalScore_Bounded(t *testing.T) {
	svc := NewConsensusService()

	if got := svc.FinalScore(0.3, -0.5); got != 0 {
		t.Errorf("final = %.3f, want floor at 0", got)
	}
	if got := svc.FinalScore(1.0, 0); got != 1.0 {
		t.Errorf("final = %.3f, want 1.0", got)
	}
	if got := svc.FinalScore(0.642, -0.05); math.Abs(got-0.592) > 1e-9 {
		t.Errorf("final = %.6f, want 0.592", got)
	}
}

func TestFinalScore_MoreChallengesNeverHelp(t *testing.T) {
	svc := NewConsensusService()

	consensus := 0.75
	prev := math.Inf(1)
	for open := 0; open <= 15; open++ {
		got := svc.FinalScore(consensus, svc.ChallengeImpact(open))
		if got > prev {
			t.Fatalf("score rose from %.4f to %.4f as challenges went to %d", prev, got, open)
		}
		prev = got
	}
}
