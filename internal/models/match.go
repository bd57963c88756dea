// internal/models/match.go
package models

import "time"

// MatchConfidence is the descriptive tier derived from a composite score.
type MatchConfidence string

const (
	ConfidenceExact    MatchConfidence = "exact"
	ConfidenceVeryHigh MatchConfidence = "very_high"
	ConfidenceHigh     MatchConfidence = "high"
	ConfidenceMedium   MatchConfidence = "medium"
	ConfidenceLow      MatchConfidence = "low"
	ConfidenceVeryLow  MatchConfidence = "very_low"
)

// ClassifyConfidence maps a composite score to its tier. Inclusive lower
// bounds; purely descriptive, never gates the decision.
func ClassifyConfidence(score float64) MatchConfidence {
	switch {
	case score >= 0.98:
		return ConfidenceExact
	case score >= 0.90:
		return ConfidenceVeryHigh
	case score >= 0.80:
		return ConfidenceHigh
	case score >= 0.70:
		return ConfidenceMedium
	case score >= 0.50:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// ScoreBreakdown records the per-field sub-scores behind a composite score.
// A nil field means the signal was absent and carried no weight.
type ScoreBreakdown struct {
	Title     *float64 `json:"title,omitempty"`
	Vin       *float64 `json:"vin,omitempty"`
	ImageHash *float64 `json:"imageHash,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Mileage   *float64 `json:"mileage,omitempty"`
	Location  *float64 `json:"location,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// DuplicateMatch records one evaluated pair that cleared the review
// threshold. Immutable after creation except for confirmation and the
// review-item link.
type DuplicateMatch struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	SourceListingID string          `json:"sourceListingId"`
	TargetListingID string          `json:"targetListingId"`
	OverallScore    float64         `json:"overallScore"`
	Confidence      MatchConfidence `json:"confidence"`
	Breakdown       ScoreBreakdown  `json:"breakdown"`
	DetectedAt      time.Time       `json:"detectedAt"`

	// IsConfirmed is set only by explicit human confirmation, never by
	// automatic acceptance.
	IsConfirmed  bool    `json:"isConfirmed"`
	ReviewItemID *string `json:"reviewItemId,omitempty"`
}
