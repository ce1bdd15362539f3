package middleware

import "testing"

func TestValidateTargetType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"node", "node", "node", false},
		{"edge", "edge", "edge", false},
		{"uppercase normalized", "NODE", "node", false},
		{"trims whitespace", "  edge  ", "edge", false},
		{"empty", "", "", true},
		{"unknown", "vertex", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateTargetType(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTargetID(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", "550e8400-e29b-41d4-a716-446655440000", false},
		{"valid with underscore", "claim_42", "claim_42", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long", string(long), "", true},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "a'; DROP--", "", true},
		{"unicode", "abcédef", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateTargetID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateSourceID(t *testing.T) {
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid doi-style", "doi-10_1000-182", "doi-10_1000-182", false},
		{"empty", "", "", true},
		{"too long", string(long), "", true},
		{"invalid chars", "src 1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateSourceID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid hash", "a1b2c3d4e5f6", "a1b2c3d4e5f6", false},
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", "550e8400-e29b-41d4-a716-446655440000", false},
		{"uppercase normalized", "ABCD1234", "abcd1234", false},
		{"empty", "", "", true},
		{"underscore rejected", "user_1", "", true},
		{"sql injection", "abc'; DROP--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUserID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateReason(t *testing.T) {
	if got := ValidateReason("  contested methodology  "); got != "contested methodology" {
		t.Errorf("trim failed: got %q", got)
	}
	long := ""
	for i := 0; i < 300; i++ {
		long += "x"
	}
	if got := ValidateReason(long); len(got) != MaxReasonLen {
		t.Errorf("truncation failed: got len %d, want %d", len(got), MaxReasonLen)
	}
}
