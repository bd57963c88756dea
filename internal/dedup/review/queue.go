// internal/dedup/review/queue.go
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/common/metrics"
	"vehicle-dedup-workers/internal/models"
)

// Store is the persistence surface the queue manager needs. ResolveItem
// must only transition items that are still pending and report whether the
// transition took effect, so concurrent reviewers cannot both win.
type Store interface {
	GetReviewItem(ctx context.Context, id string) (*models.ReviewItem, error)
	ResolveItem(ctx context.Context, id string, status models.ReviewStatus, reviewedBy, notes string, reviewedAt time.Time) (bool, error)
	ListPending(ctx context.Context, tenantID string, limit int) ([]*models.ReviewItem, error)
}

// MatchStore updates the match a review item adjudicates.
type MatchStore interface {
	ConfirmMatch(ctx context.Context, id string, confirmedBy string) error
	DeleteMatch(ctx context.Context, id string) error
}

// AuditStore appends corrective audit entries and flags original decisions.
type AuditStore interface {
	SaveAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	FindDecisionEntry(ctx context.Context, tenantID, sourceListingID, targetListingID string) (*models.AuditEntry, error)
	MarkFalsePositive(ctx context.Context, entryID string) error
	MarkFalseNegative(ctx context.Context, entryID string) error
}

// Outcome reports how a review resolution landed.
type Outcome struct {
	Item         *models.ReviewItem
	AuditEntryID string
}

// Manager drives the review-item lifecycle. All transitions out of pending
// are terminal; a second resolution attempt gets a typed already-resolved
// error carrying the item's final status.
type Manager struct {
	items   Store
	matches MatchStore
	audits  AuditStore
	logger  logger.Logger
	now     func() time.Time
}

func NewManager(items Store, matches MatchStore, audits AuditStore, log logger.Logger) *Manager {
	return &Manager{
		items:   items,
		matches: matches,
		audits:  audits,
		logger:  log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmAsDuplicate marks the item's match as a human-confirmed duplicate.
func (m *Manager) ConfirmAsDuplicate(ctx context.Context, itemID, reviewedBy, notes string) (*Outcome, error) {
	item, err := m.resolve(ctx, itemID, models.ReviewStatusConfirmedDuplicate, reviewedBy, notes)
	if err != nil {
		return nil, err
	}

	if err := m.matches.ConfirmMatch(ctx, item.DuplicateMatchID, reviewedBy); err != nil {
		return nil, err
	}

	// The automatic decision was a near match that turned out to be a real
	// duplicate; flag it as a missed catch.
	entry, err := m.correctionEntry(ctx, item, models.ReasonFalseNegativeCorrection, reviewedBy, notes)
	if err != nil {
		return nil, err
	}
	if original := entry.OriginalAuditEntryID; original != nil {
		if err := m.audits.MarkFalseNegative(ctx, *original); err != nil {
			return nil, err
		}
	}

	metrics.ReviewItemsResolved.WithLabelValues(string(models.ReviewStatusConfirmedDuplicate)).Inc()
	return &Outcome{Item: item, AuditEntryID: entry.ID}, nil
}

// ConfirmAsNotDuplicate rejects the match and removes it.
func (m *Manager) ConfirmAsNotDuplicate(ctx context.Context, itemID, reviewedBy, notes string) (*Outcome, error) {
	item, err := m.resolve(ctx, itemID, models.ReviewStatusConfirmedNotDuplicate, reviewedBy, notes)
	if err != nil {
		return nil, err
	}

	if err := m.matches.DeleteMatch(ctx, item.DuplicateMatchID); err != nil {
		return nil, err
	}

	entry, err := m.correctionEntry(ctx, item, models.ReasonFalsePositiveCorrection, reviewedBy, notes)
	if err != nil {
		return nil, err
	}
	if original := entry.OriginalAuditEntryID; original != nil {
		if err := m.audits.MarkFalsePositive(ctx, *original); err != nil {
			return nil, err
		}
	}

	metrics.ReviewItemsResolved.WithLabelValues(string(models.ReviewStatusConfirmedNotDuplicate)).Inc()
	return &Outcome{Item: item, AuditEntryID: entry.ID}, nil
}

// Skip parks the item without judging the match. The match row stays
// unconfirmed and no correction is recorded.
func (m *Manager) Skip(ctx context.Context, itemID, reviewedBy, notes string) (*Outcome, error) {
	item, err := m.resolve(ctx, itemID, models.ReviewStatusSkipped, reviewedBy, notes)
	if err != nil {
		return nil, err
	}

	metrics.ReviewItemsResolved.WithLabelValues(string(models.ReviewStatusSkipped)).Inc()
	return &Outcome{Item: item}, nil
}

// ListPending returns pending items for a tenant ordered by priority.
func (m *Manager) ListPending(ctx context.Context, tenantID string, limit int) ([]*models.ReviewItem, error) {
	return m.items.ListPending(ctx, tenantID, limit)
}

// resolve performs the guarded pending -> terminal transition and returns
// the item in its final state.
func (m *Manager) resolve(ctx context.Context, itemID string, status models.ReviewStatus, reviewedBy, notes string) (*models.ReviewItem, error) {
	item, err := m.items.GetReviewItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.IsTerminal() {
		return nil, errors.NewReviewAlreadyResolvedError(itemID, string(item.Status))
	}

	reviewedAt := m.now()
	updated, err := m.items.ResolveItem(ctx, itemID, status, reviewedBy, notes, reviewedAt)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Someone else resolved it between our read and our update.
		current, err := m.items.GetReviewItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return nil, errors.NewReviewAlreadyResolvedError(itemID, string(current.Status))
	}

	item.Status = status
	item.ReviewedBy = reviewedBy
	item.ReviewNotes = notes
	item.ReviewedAt = &reviewedAt

	m.logger.Info("review item resolved", map[string]interface{}{
		"reviewItemId": itemID,
		"status":       string(status),
		"reviewedBy":   reviewedBy,
	})
	return item, nil
}

// correctionEntry appends the manual-override audit record linked back to
// the original automatic decision, when one can be found. The reason says
// which way the correction went; the decision is always manual_override.
func (m *Manager) correctionEntry(ctx context.Context, item *models.ReviewItem, reason models.MatchReason, reviewedBy, notes string) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		ID:              uuid.NewString(),
		TenantID:        item.TenantID,
		SourceListingID: item.SourceListingID,
		TargetListingID: item.TargetListingID,
		Decision:        models.DecisionManualOverride,
		Reason:          reason,
		WasAutomatic:    false,
		ManualOverride:  true,
		OverrideReason:  notes,
		ReviewedBy:      reviewedBy,
		CreatedAt:       m.now(),
	}

	original, err := m.audits.FindDecisionEntry(ctx, item.TenantID, item.SourceListingID, item.TargetListingID)
	if err != nil {
		m.logger.Warn("could not locate original audit entry for correction", map[string]interface{}{
			"reviewItemId": item.ID,
			"error":        err,
		})
	} else if original != nil {
		entry.OriginalAuditEntryID = &original.ID
	}

	if err := m.audits.SaveAuditEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
