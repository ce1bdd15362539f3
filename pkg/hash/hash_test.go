package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{"case insensitive", "The Study Found X", "the study found x", true},
		{"collapsed whitespace", "a  b\tc", "a b c", true},
		{"leading/trailing trimmed", "  quote  ", "quote", true},
		{"different content differs", "claim A", "claim B", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha, hb := ContentHash(tt.a), ContentHash(tt.b)
			if (ha == hb) != tt.same {
				t.Errorf("ContentHash(%q) vs ContentHash(%q): same=%v, want %v", tt.a, tt.b, ha == hb, tt.same)
			}
		})
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	content := "a randomized controlled trial of 400 participants"
	if ContentHash(content) != ContentHash(content) {
		t.Error("ContentHash should be deterministic")
	}
	if len(ContentHash(content)) != 64 {
		t.Errorf("ContentHash length = %d, want 64", len(ContentHash(content)))
	}
}

func TestShortHash(t *testing.T) {
	full := SHA256Hex("node:abc123")

	tests := []struct {
		name      string
		input     string
		prefixLen int
		want      string
	}{
		{"8 char prefix", "node:abc123", 8, full[:8]},
		{"12 char prefix", "node:abc123", 12, full[:12]},
		{"full hash if prefix too long", "node:abc123", 100, full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortHash(tt.input, tt.prefixLen)
			if got != tt.want {
				t.Errorf("ShortHash(%q, %d) = %s, want %s", tt.input, tt.prefixLen, got, tt.want)
			}
		})
	}
}
