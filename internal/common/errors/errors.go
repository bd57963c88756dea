// Package errors provides standardized error handling for the deduplication
// workers and their BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigNotFound         ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigAmbiguous        ErrorCode = "CONFIG_AMBIGUOUS"
	ErrCodeConfigValidationFailed ErrorCode = "CONFIG_VALIDATION_FAILED"

	ErrCodeListingNotFound    ErrorCode = "LISTING_NOT_FOUND"
	ErrCodeListingFetchFailed ErrorCode = "LISTING_FETCH_FAILED"

	ErrCodeRuleResolutionFailed ErrorCode = "RULE_RESOLUTION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodePersistenceFailed        ErrorCode = "PERSISTENCE_FAILED"

	ErrCodeReviewItemNotFound    ErrorCode = "REVIEW_ITEM_NOT_FOUND"
	ErrCodeReviewAlreadyResolved ErrorCode = "REVIEW_ALREADY_RESOLVED"
	ErrCodeInvalidReviewAction   ErrorCode = "INVALID_REVIEW_ACTION"

	ErrCodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := err.(*StandardError)
	return ok && stdErr.Code == code
}

// AsStandardError extracts the StandardError from err when there is one.
func AsStandardError(err error, target **StandardError) bool {
	stdErr, ok := err.(*StandardError)
	if ok {
		*target = stdErr
	}
	return ok
}

// CodeOf returns the error code for metrics labels, falling back to
// INTERNAL_ERROR for errors that carry no code.
func CodeOf(err error) string {
	var stdErr *StandardError
	if AsStandardError(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ConvertToBPMNError maps a StandardError to its workflow-facing form.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
	}
}

// GetRetryCount returns how many retries a code warrants. Only transient
// collaborator failures are retried; the scoring logic itself never retries.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed, ErrCodePersistenceFailed,
		ErrCodeListingFetchFailed, ErrCodeRuleResolutionFailed:
		return 3
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfigNotFound, ErrCodeConfigAmbiguous, ErrCodeConfigValidationFailed:
		return "configuration"
	case ErrCodeListingNotFound, ErrCodeListingFetchFailed:
		return "listing"
	case ErrCodeDatabaseConnectionFailed, ErrCodePersistenceFailed:
		return "persistence"
	case ErrCodeReviewItemNotFound, ErrCodeReviewAlreadyResolved, ErrCodeInvalidReviewAction:
		return "review"
	case ErrCodeEventPublishFailed:
		return "notification"
	default:
		return "internal"
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigNotFoundError indicates no active config exists for the tenant.
func NewConfigNotFoundError(tenantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigNotFound,
		Message:   "No active deduplication config for tenant",
		Details:   fmt.Sprintf("tenantId: %s", tenantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigAmbiguousError indicates more than one active config for the
// tenant. The lookup refuses to pick one silently.
func NewConfigAmbiguousError(tenantID string, count int) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigAmbiguous,
		Message:   "Multiple active deduplication configs for tenant",
		Details:   fmt.Sprintf("tenantId: %s, activeConfigs: %d", tenantID, count),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigValidationFailedError rejects an invalid config at write time.
func NewConfigValidationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigValidationFailed,
		Message:   "Deduplication config failed validation",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingNotFoundError indicates the listing index has no such document.
func NewListingNotFoundError(listingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found",
		Details:   fmt.Sprintf("listingId: %s", listingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingFetchFailedError creates a retryable listing-read error.
func NewListingFetchFailedError(listingID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingFetchFailed,
		Message:   "Failed to fetch listing",
		Details:   fmt.Sprintf("listingId: %s, error: %s", listingID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRuleResolutionFailedError creates a retryable rule-lookup error.
func NewRuleResolutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleResolutionFailed,
		Message:   "Dealer rule resolution failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable persistence error.
func NewPersistenceFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Persistence operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReviewItemNotFoundError indicates an unknown review item.
func NewReviewItemNotFoundError(reviewItemID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReviewItemNotFound,
		Message:   "Review item not found",
		Details:   fmt.Sprintf("reviewItemId: %s", reviewItemID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReviewAlreadyResolvedError is the caller-facing conflict when a
// terminal review item is resolved again. Recoverable, never fatal.
func NewReviewAlreadyResolvedError(reviewItemID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReviewAlreadyResolved,
		Message:   "Review item is already resolved",
		Details:   fmt.Sprintf("reviewItemId: %s, status: %s", reviewItemID, status),
		Retryable: false,
		Metadata: map[string]interface{}{
			"reviewItemId": reviewItemID,
			"status":       status,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidReviewActionError rejects an unknown resolution action.
func NewInvalidReviewActionError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidReviewAction,
		Message:   "Unsupported review action",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventPublishFailedError wraps a decision-event publish failure. The
// sink is fire-and-forget, so this is logged rather than propagated.
func NewEventPublishFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Decision event publish failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
