package middleware

import "testing"

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"score lookup", "/api/scores/node/abc123", "/api/scores/node/:targetId"},
		{"edge history", "/api/scores/edge/rel-42/history", "/api/scores/edge/:targetId/history"},
		{"eligibility", "/api/eligibility/node/claim-7", "/api/eligibility/node/:targetId"},
		{"reputation lookup", "/api/reputation/user-9f2a", "/api/reputation/:userId"},
		{"challenge positions", "/api/challenges/ch-11/positions", "/api/challenges/:challengeId/positions"},
		{"static route untouched", "/api/stats", "/api/stats"},
		{"health untouched", "/health/ready", "/health/ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizePath(tt.path); got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHashIPForLog(t *testing.T) {
	h := hashIPForLog("203.0.113.7")
	if len(h) != 12 {
		t.Errorf("hash length = %d, want 12", len(h))
	}
	if h != hashIPForLog("203.0.113.7") {
		t.Error("hash must be deterministic for the same IP")
	}
	if h == hashIPForLog("203.0.113.8") {
		t.Error("distinct IPs must not collide on the short prefix")
	}
}
