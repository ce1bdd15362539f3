package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/config"
	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func newTestChallengeService() *ChallengeService {
	return NewChallengeService(nil, nil, config.DefaultThresholds)
}

func TestChallengeApply_RejectsInvalidTargetType(t *testing.T) {
	svc := newTestChallengeService()

	_, err := svc.Apply(context.Background(), model.ChallengeEvent{
		TargetType: "vertex", TargetID: "n1", NewStatus: "open",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown target type")
	}
}

func TestChallengeApply_RejectsInvalidStatus(t *testing.T) {
	svc := newTestChallengeService()

	_, err := svc.Apply(context.Background(), model.ChallengeEvent{
		TargetType: "node", TargetID: "n1", NewStatus: "withdrawn",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown challenge status")
	}
}

func TestChallengeApply_ResolutionRequiresChallengeID(t *testing.T) {
	svc := newTestChallengeService()

	// Without an ID the update would match nothing and silently no-op.
	_, err := svc.Apply(context.Background(), model.ChallengeEvent{
		TargetType: "node", TargetID: "n1", NewStatus: "resolved", Resolution: "upheld",
	})
	if err == nil {
		t.Fatal("expected resolution without a challengeId to be rejected")
	}
	if !strings.Contains(err.Error(), "challengeId") {
		t.Errorf("error = %q, want it to name the missing field", err)
	}
}
