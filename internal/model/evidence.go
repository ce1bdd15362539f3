package model

import "time"

// EvidenceType classifies how a piece of evidence relates to its target.
type EvidenceType string

const (
	EvidenceSupporting EvidenceType = "supporting"
	EvidenceRefuting   EvidenceType = "refuting"
	EvidenceNeutral    EvidenceType = "neutral"
	EvidenceClarifying EvidenceType = "clarifying"
)

// ValidEvidenceTypes are the allowed evidence type values.
var ValidEvidenceTypes = map[EvidenceType]bool{
	EvidenceSupporting: true,
	EvidenceRefuting:   true,
	EvidenceNeutral:    true,
	EvidenceClarifying: true,
}

// Evidence links a source to exactly one target. Sources are created on
// first reference and never deleted while evidence cites them.
type Evidence struct {
	EvidenceID        string       `json:"evidenceId"`
	TargetType        TargetType   `json:"targetType"`
	TargetID          string       `json:"targetId"`
	SourceID          string       `json:"sourceId"`
	SubmitterID       string       `json:"submitterId"`
	Type              EvidenceType `json:"type"`
	BaseWeight        float64      `json:"baseWeight"`
	Confidence        float64      `json:"confidence"`
	TemporalRelevance float64      `json:"temporalRelevance"`
	Verified          bool         `json:"verified"`
	PeerReviewed      bool         `json:"peerReviewed"`
	Deleted           bool         `json:"-"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// WeightedEvidence pairs an evidence row with its computed effective weight.
type WeightedEvidence struct {
	Type            EvidenceType
	EffectiveWeight float64
}

// EvidenceEvent is the inbound mutation event for evidence changes.
type EvidenceEvent struct {
	EvidenceID        string  `json:"evidenceId,omitempty"`
	TargetType        string  `json:"targetType"`
	TargetID          string  `json:"targetId"`
	SourceID          string  `json:"sourceId"`
	SourceType        string  `json:"sourceType,omitempty"`
	SourceContent     string  `json:"sourceContent,omitempty"`
	SubmitterID       string  `json:"submitterId"`
	Type              string  `json:"type"`
	BaseWeight        float64 `json:"baseWeight"`
	Confidence        float64 `json:"confidence"`
	TemporalRelevance float64 `json:"temporalRelevance"`
	Verified          bool    `json:"verified"`
	PeerReviewed      bool    `json:"peerReviewed"`
	Deleted           bool    `json:"deleted,omitempty"`
}
