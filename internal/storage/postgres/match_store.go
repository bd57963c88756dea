// internal/storage/postgres/match_store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// MatchStore persists duplicate matches. The breakdown is stored as JSONB
// alongside the score so decisions stay explainable after config changes.
type MatchStore struct {
	db *sql.DB
}

func NewMatchStore(db *sql.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) SaveMatch(ctx context.Context, match *models.DuplicateMatch) error {
	breakdownJSON, err := json.Marshal(match.Breakdown)
	if err != nil {
		return errors.NewPersistenceFailedError("encode match breakdown", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO duplicate_matches
			(id, tenant_id, source_listing_id, target_listing_id,
			 overall_score, confidence, breakdown, detected_at,
			 is_confirmed, review_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		match.ID, match.TenantID, match.SourceListingID, match.TargetListingID,
		match.OverallScore, string(match.Confidence), breakdownJSON, match.DetectedAt,
		match.IsConfirmed, match.ReviewItemID); err != nil {
		return errors.NewPersistenceFailedError("save match", err)
	}
	return nil
}

func (s *MatchStore) GetMatch(ctx context.Context, id string) (*models.DuplicateMatch, error) {
	var match models.DuplicateMatch
	var confidence string
	var breakdownJSON []byte
	var reviewItemID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, source_listing_id, target_listing_id,
		       overall_score, confidence, breakdown, detected_at,
		       is_confirmed, review_item_id
		FROM duplicate_matches
		WHERE id = $1`, id).Scan(
		&match.ID, &match.TenantID, &match.SourceListingID, &match.TargetListingID,
		&match.OverallScore, &confidence, &breakdownJSON, &match.DetectedAt,
		&match.IsConfirmed, &reviewItemID,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewPersistenceFailedError("match not found", err)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("get match", err)
	}

	match.Confidence = models.MatchConfidence(confidence)
	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &match.Breakdown); err != nil {
			return nil, errors.NewPersistenceFailedError("decode match breakdown", err)
		}
	}
	if reviewItemID.Valid {
		match.ReviewItemID = &reviewItemID.String
	}
	return &match, nil
}

// LinkReviewItem attaches the review item created for a near match.
func (s *MatchStore) LinkReviewItem(ctx context.Context, matchID, reviewItemID string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE duplicate_matches
		SET review_item_id = $2
		WHERE id = $1`, matchID, reviewItemID); err != nil {
		return errors.NewPersistenceFailedError("link review item", err)
	}
	return nil
}

// ConfirmMatch records an explicit human confirmation. Automatic
// acceptance never sets the flag.
func (s *MatchStore) ConfirmMatch(ctx context.Context, id string, confirmedBy string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE duplicate_matches
		SET is_confirmed = TRUE, confirmed_by = $2, confirmed_at = $3
		WHERE id = $1`, id, confirmedBy, time.Now().UTC())
	if err != nil {
		return errors.NewPersistenceFailedError("confirm match", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewPersistenceFailedError("confirm match", err)
	}
	if affected == 0 {
		return errors.NewPersistenceFailedError("confirm match", sql.ErrNoRows)
	}
	return nil
}

// DeleteMatch removes a rejected match. The audit trail keeps the history.
func (s *MatchStore) DeleteMatch(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM duplicate_matches WHERE id = $1`, id); err != nil {
		return errors.NewPersistenceFailedError("delete match", err)
	}
	return nil
}
