// internal/storage/postgres/audit_store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// AuditStore persists the append-only decision trail. Rows are never
// updated except for the retroactive false-positive and false-negative
// flags.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

const auditColumns = `id, tenant_id, source_listing_id, target_listing_id,
	decision, reason, confidence_score,
	was_automatic, manual_override, override_reason, reviewed_by,
	original_audit_entry_id, is_false_positive, is_false_negative,
	breakdown, created_at`

func (s *AuditStore) SaveAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	breakdownJSON, err := json.Marshal(entry.Breakdown)
	if err != nil {
		return errors.NewPersistenceFailedError("encode audit breakdown", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		entry.ID, entry.TenantID, entry.SourceListingID, entry.TargetListingID,
		string(entry.Decision), string(entry.Reason), entry.ConfidenceScore,
		entry.WasAutomatic, entry.ManualOverride, entry.OverrideReason, entry.ReviewedBy,
		entry.OriginalAuditEntryID, entry.IsFalsePositive, entry.IsFalseNegative,
		breakdownJSON, entry.CreatedAt); err != nil {
		return errors.NewPersistenceFailedError("save audit entry", err)
	}
	return nil
}

// FindDecisionEntry returns the most recent automatic decision for the
// pair, or nil when the pair has no automatic decision on record.
func (s *AuditStore) FindDecisionEntry(ctx context.Context, tenantID, sourceListingID, targetListingID string) (*models.AuditEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_entries
		WHERE tenant_id = $1 AND source_listing_id = $2 AND target_listing_id = $3
		  AND was_automatic = TRUE
		ORDER BY created_at DESC
		LIMIT 1`, tenantID, sourceListingID, targetListingID)

	entry, err := scanAuditEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("find decision entry", err)
	}
	return entry, nil
}

// ListForPair returns the full decision history for a pair, oldest first.
func (s *AuditStore) ListForPair(ctx context.Context, tenantID, sourceListingID, targetListingID string) ([]*models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_entries
		WHERE tenant_id = $1 AND source_listing_id = $2 AND target_listing_id = $3
		ORDER BY created_at ASC`, tenantID, sourceListingID, targetListingID)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("list audit entries", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, errors.NewPersistenceFailedError("scan audit entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("list audit entries", err)
	}
	return entries, nil
}

func (s *AuditStore) MarkFalsePositive(ctx context.Context, entryID string) error {
	return s.markFlag(ctx, entryID, "is_false_positive")
}

func (s *AuditStore) MarkFalseNegative(ctx context.Context, entryID string) error {
	return s.markFlag(ctx, entryID, "is_false_negative")
}

func (s *AuditStore) markFlag(ctx context.Context, entryID, column string) error {
	// column is one of the two flag constants above, never user input.
	if _, err := s.db.ExecContext(ctx, `
		UPDATE audit_entries SET `+column+` = TRUE WHERE id = $1`, entryID); err != nil {
		return errors.NewPersistenceFailedError("flag audit entry", err)
	}
	return nil
}

func scanAuditEntry(row rowScanner) (*models.AuditEntry, error) {
	var entry models.AuditEntry
	var decision, reason string
	var confidenceScore sql.NullFloat64
	var overrideReason, reviewedBy, originalID sql.NullString
	var breakdownJSON []byte

	if err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.SourceListingID, &entry.TargetListingID,
		&decision, &reason, &confidenceScore,
		&entry.WasAutomatic, &entry.ManualOverride, &overrideReason, &reviewedBy,
		&originalID, &entry.IsFalsePositive, &entry.IsFalseNegative,
		&breakdownJSON, &entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	entry.Decision = models.MatchDecision(decision)
	entry.Reason = models.MatchReason(reason)
	if confidenceScore.Valid {
		entry.ConfidenceScore = &confidenceScore.Float64
	}
	entry.OverrideReason = overrideReason.String
	entry.ReviewedBy = reviewedBy.String
	if originalID.Valid {
		entry.OriginalAuditEntryID = &originalID.String
	}
	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &entry.Breakdown); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}
