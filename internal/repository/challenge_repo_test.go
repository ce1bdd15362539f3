package repository

import (
	"testing"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

func TestChallengeBlocked(t *testing.T) {
	tests := []struct {
		name      string
		exists    bool
		level     int
		newStatus string
		want      bool
	}{
		// A first-seen target has no row; the zero-value level must not be
		// mistaken for the verified tier.
		{"fresh target opens fine", false, 0, "open", false},
		{"mutable target opens fine", true, model.LevelMutable, "open", false},
		{"promoted target rejects open", true, model.LevelVerified, "open", true},
		{"promoted target allows resolve", true, model.LevelVerified, "resolved", false},
		{"fresh target resolve passes guard", false, 0, "resolved", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := challengeBlocked(tt.exists, tt.level, tt.newStatus); got != tt.want {
				t.Errorf("challengeBlocked(%v, %d, %q) = %v, want %v",
					tt.exists, tt.level, tt.newStatus, got, tt.want)
			}
		})
	}
}
