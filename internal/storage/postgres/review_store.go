// internal/storage/postgres/review_store.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// ReviewStore persists review items. Terminal transitions are guarded in
// SQL: only a pending row can be resolved, and the caller learns whether
// its update actually landed.
type ReviewStore struct {
	db *sql.DB
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func (s *ReviewStore) CreateReviewItem(ctx context.Context, item *models.ReviewItem) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO review_items
			(id, tenant_id, duplicate_match_id, source_listing_id, target_listing_id,
			 match_score, priority, status, review_notes, reviewed_by, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, item.TenantID, item.DuplicateMatchID,
		item.SourceListingID, item.TargetListingID,
		item.MatchScore, item.Priority, string(item.Status),
		item.ReviewNotes, item.ReviewedBy, item.CreatedAt, item.ReviewedAt); err != nil {
		return errors.NewPersistenceFailedError("create review item", err)
	}
	return nil
}

func (s *ReviewStore) GetReviewItem(ctx context.Context, id string) (*models.ReviewItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, duplicate_match_id, source_listing_id, target_listing_id,
		       match_score, priority, status, review_notes, reviewed_by, created_at, reviewed_at
		FROM review_items
		WHERE id = $1`, id)

	item, err := scanReviewItem(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewReviewItemNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("get review item", err)
	}
	return item, nil
}

// ResolveItem transitions a pending item to a terminal status. Returns
// false without error when the item was already resolved; the WHERE clause
// on status makes concurrent resolutions race-safe.
func (s *ReviewStore) ResolveItem(ctx context.Context, id string, status models.ReviewStatus, reviewedBy, notes string, reviewedAt time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE review_items
		SET status = $2, reviewed_by = $3, review_notes = $4, reviewed_at = $5
		WHERE id = $1 AND status = $6`,
		id, string(status), reviewedBy, notes, reviewedAt, string(models.ReviewStatusPending))
	if err != nil {
		return false, errors.NewPersistenceFailedError("resolve review item", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewPersistenceFailedError("resolve review item", err)
	}
	return affected == 1, nil
}

// ListPending returns pending items for a tenant, most urgent first, then
// oldest first within a priority.
func (s *ReviewStore) ListPending(ctx context.Context, tenantID string, limit int) ([]*models.ReviewItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, duplicate_match_id, source_listing_id, target_listing_id,
		       match_score, priority, status, review_notes, reviewed_by, created_at, reviewed_at
		FROM review_items
		WHERE tenant_id = $1 AND status = $2
		ORDER BY priority ASC, created_at ASC
		LIMIT $3`, tenantID, string(models.ReviewStatusPending), limit)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("list pending review items", err)
	}
	defer rows.Close()

	var items []*models.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, errors.NewPersistenceFailedError("scan review item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("list pending review items", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReviewItem(row rowScanner) (*models.ReviewItem, error) {
	var item models.ReviewItem
	var status string
	var notes, reviewedBy sql.NullString
	var reviewedAt sql.NullTime

	if err := row.Scan(
		&item.ID, &item.TenantID, &item.DuplicateMatchID,
		&item.SourceListingID, &item.TargetListingID,
		&item.MatchScore, &item.Priority, &status,
		&notes, &reviewedBy, &item.CreatedAt, &reviewedAt,
	); err != nil {
		return nil, err
	}

	item.Status = models.ReviewStatus(status)
	item.ReviewNotes = notes.String
	item.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		item.ReviewedAt = &reviewedAt.Time
	}
	return &item, nil
}
