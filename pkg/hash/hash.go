package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ContentHash fingerprints source content for duplicate detection. Content is
// normalized (trimmed, lowercased, whitespace collapsed) so cosmetic edits to
// the same material produce the same hash.
func ContentHash(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	return SHA256Hex(normalized)
}

// ShortHash returns the first prefixLen characters of SHA256(input). Used for
// compact correlation keys in logs.
func ShortHash(input string, prefixLen int) string {
	full := SHA256Hex(input)
	if prefixLen > len(full) {
		return full
	}
	return full[:prefixLen]
}
