// internal/models/audit_entry.go
package models

import "time"

// MatchDecision is the outcome recorded for an evaluated pair.
type MatchDecision string

const (
	DecisionNewListing     MatchDecision = "new_listing"
	DecisionDuplicate      MatchDecision = "duplicate"
	DecisionNearMatch      MatchDecision = "near_match"
	DecisionManualOverride MatchDecision = "manual_override"
)

// MatchReason explains why a decision was reached.
type MatchReason string

const (
	ReasonNoMatch                 MatchReason = "no_match"
	ReasonVinMatch                MatchReason = "vin_match"
	ReasonExternalIDMatch         MatchReason = "external_id_match"
	ReasonFuzzyMatch              MatchReason = "fuzzy_match"
	ReasonImageMatch              MatchReason = "image_match"
	ReasonCombinedMatch           MatchReason = "combined_match"
	ReasonManualReview            MatchReason = "manual_review"
	ReasonFalsePositiveCorrection MatchReason = "false_positive_correction"
	ReasonFalseNegativeCorrection MatchReason = "false_negative_correction"
)

// AuditEntry is the append-only record of one deduplication decision or one
// human correction. Entries are never mutated except to set the
// false-positive / false-negative flags retroactively.
type AuditEntry struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenantId"`
	SourceListingID string        `json:"sourceListingId"`
	TargetListingID string        `json:"targetListingId"`
	Decision        MatchDecision `json:"decision"`
	Reason          MatchReason   `json:"reason"`

	// ConfidenceScore is nil for authoritative-key matches, where no
	// weighted score was computed.
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`

	WasAutomatic   bool   `json:"wasAutomatic"`
	ManualOverride bool   `json:"manualOverride"`
	OverrideReason string `json:"overrideReason,omitempty"`
	ReviewedBy     string `json:"reviewedBy,omitempty"`

	// OriginalAuditEntryID links a correction back to the decision it corrects.
	OriginalAuditEntryID *string `json:"originalAuditEntryId,omitempty"`

	IsFalsePositive bool `json:"isFalsePositive"`
	IsFalseNegative bool `json:"isFalseNegative"`

	// Breakdown is the serialized field-score breakdown at decision time.
	Breakdown ScoreBreakdown `json:"breakdown"`

	CreatedAt time.Time `json:"createdAt"`
}
