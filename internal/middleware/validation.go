package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxTargetIDLen  = 64  // targets.target_id VARCHAR(64)
	MaxSourceIDLen  = 128 // sources.source_id VARCHAR(128)
	MaxUserIDLen    = 64  // reputation_metrics.user_id VARCHAR(64)
	MaxReasonLen    = 256
	MaxCategoryLen  = 40
)

var (
	// idRe matches opaque entity IDs: alphanumeric, dash, underscore
	// (covers UUIDs and external graph IDs).
	idRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// userIDRe matches user IDs: hex hashes or UUID-style identifiers.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateTargetType checks the target type discriminator.
func ValidateTargetType(tt string) (string, string) {
	tt = strings.TrimSpace(strings.ToLower(tt))
	if tt != "node" && tt != "edge" {
		return "", "targetType must be 'node' or 'edge'"
	}
	return tt, ""
}

// ValidateTargetID checks that a target ID is well-formed and within DB limits.
func ValidateTargetID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "targetId is required"
	}
	if len(id) > MaxTargetIDLen {
		return "", "targetId must be at most 64 characters"
	}
	if !idRe.MatchString(id) {
		return "", "targetId contains invalid characters"
	}
	return id, ""
}

// ValidateSourceID checks that a source ID is well-formed.
func ValidateSourceID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "sourceId is required"
	}
	if len(id) > MaxSourceIDLen {
		return "", "sourceId must be at most 128 characters"
	}
	if !idRe.MatchString(id) {
		return "", "sourceId contains invalid characters"
	}
	return id, ""
}

// ValidateUserID checks that a user ID is a valid identifier.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "userId is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 64 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidateReason trims and truncates a free-text reason field.
func ValidateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLen {
		reason = reason[:MaxReasonLen]
	}
	return reason
}
