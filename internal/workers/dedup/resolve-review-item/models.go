// internal/workers/dedup/resolve-review-item/models.go
package resolvereviewitem

// Actions a reviewer can take on a pending item.
const (
	ActionConfirmDuplicate    = "confirm_duplicate"
	ActionConfirmNotDuplicate = "confirm_not_duplicate"
	ActionSkip                = "skip"
)

type Input struct {
	ReviewItemID string `json:"reviewItemId"`
	Action       string `json:"action"`
	ReviewedBy   string `json:"reviewedBy"`
	Notes        string `json:"notes,omitempty"`
}

type Output struct {
	ReviewItemID   string `json:"reviewItemId"`
	Status         string `json:"status"`
	AuditEntryID   string `json:"auditEntryId,omitempty"`
	AlreadyResolved bool  `json:"alreadyResolved"`
}
