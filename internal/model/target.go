package model

import "fmt"

// TargetType discriminates what kind of graph entity a score attaches to.
// Evidence links to exactly one node or one edge, never both.
type TargetType string

const (
	TargetNode TargetType = "node"
	TargetEdge TargetType = "edge"
)

// ValidTargetTypes are the allowed target type values.
var ValidTargetTypes = map[TargetType]bool{
	TargetNode: true,
	TargetEdge: true,
}

// TargetRef identifies a node or edge that accumulates evidence,
// challenges and a veracity score.
type TargetRef struct {
	Type TargetType `json:"targetType"`
	ID   string     `json:"targetId"`
}

// Key returns the canonical string key for a target, used for cache keys,
// advisory lock hashing and the recompute pending set.
func (t TargetRef) Key() string {
	return fmt.Sprintf("%s:%s", t.Type, t.ID)
}

// Verification level of a target. Level 1 is mutable; level 0 is the
// terminal verified tier — immutable, score pinned at 1.0.
const (
	LevelVerified = 0
	LevelMutable  = 1
)
