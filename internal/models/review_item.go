// internal/models/review_item.go
package models

import "time"

// ReviewStatus is the lifecycle of a review item. Pending is initial; the
// other three are terminal.
type ReviewStatus string

const (
	ReviewStatusPending               ReviewStatus = "pending"
	ReviewStatusConfirmedDuplicate    ReviewStatus = "confirmed_duplicate"
	ReviewStatusConfirmedNotDuplicate ReviewStatus = "confirmed_not_duplicate"
	ReviewStatusSkipped               ReviewStatus = "skipped"
)

// IsTerminal reports whether the status permits no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusConfirmedDuplicate ||
		s == ReviewStatusConfirmedNotDuplicate ||
		s == ReviewStatusSkipped
}

// ReviewItem is a near-match awaiting human adjudication.
type ReviewItem struct {
	ID               string       `json:"id"`
	TenantID         string       `json:"tenantId"`
	DuplicateMatchID string       `json:"duplicateMatchId"`
	SourceListingID  string       `json:"sourceListingId"`
	TargetListingID  string       `json:"targetListingId"`
	MatchScore       float64      `json:"matchScore"`
	Priority         int          `json:"priority"` // 1 = most urgent
	Status           ReviewStatus `json:"status"`
	ReviewNotes      string       `json:"reviewNotes,omitempty"`
	ReviewedBy       string       `json:"reviewedBy,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	ReviewedAt       *time.Time   `json:"reviewedAt,omitempty"`
}

// ReviewPriorityForScore maps a match score to a queue priority.
func ReviewPriorityForScore(score float64) int {
	switch {
	case score >= 0.90:
		return 1
	case score >= 0.85:
		return 2
	case score >= 0.80:
		return 3
	case score >= 0.75:
		return 4
	default:
		return 5
	}
}
