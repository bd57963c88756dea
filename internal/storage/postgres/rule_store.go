// internal/storage/postgres/rule_store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// RuleStore persists dealer deduplication rules. Conditions and overrides
// are stored as JSONB.
type RuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// ListActiveRules returns the active rules for a dealer, highest priority
// first.
func (s *RuleStore) ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, dealer_id, name, priority, condition, overrides,
		       is_active, times_applied, last_applied_at, created_at, updated_at
		FROM dealer_dedup_rules
		WHERE tenant_id = $1 AND dealer_id = $2 AND is_active = TRUE
		ORDER BY priority DESC, created_at DESC`, tenantID, dealerID)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("list dealer rules", err)
	}
	defer rows.Close()

	var ruleList []*models.DealerDeduplicationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, errors.NewPersistenceFailedError("scan dealer rule", err)
		}
		ruleList = append(ruleList, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("list dealer rules", err)
	}
	return ruleList, nil
}

// SaveRule inserts or replaces a rule by id. Override values are validated
// here so rule resolution can trust stored rules.
func (s *RuleStore) SaveRule(ctx context.Context, rule *models.DealerDeduplicationRule) error {
	if err := rule.Validate(); err != nil {
		return errors.NewConfigValidationFailedError(err)
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	condition := rule.Condition
	if condition == nil {
		condition = models.AlwaysCondition{}
	}
	conditionJSON, err := models.MarshalCondition(condition)
	if err != nil {
		return errors.NewPersistenceFailedError("encode rule condition", err)
	}
	overridesJSON, err := json.Marshal(rule.Overrides)
	if err != nil {
		return errors.NewPersistenceFailedError("encode rule overrides", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO dealer_dedup_rules
			(id, tenant_id, dealer_id, name, priority, condition, overrides,
			 is_active, times_applied, last_applied_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			priority = EXCLUDED.priority,
			condition = EXCLUDED.condition,
			overrides = EXCLUDED.overrides,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		rule.ID, rule.TenantID, rule.DealerID, rule.Name, rule.Priority,
		conditionJSON, overridesJSON, rule.IsActive,
		rule.TimesApplied, rule.LastAppliedAt, rule.CreatedAt, rule.UpdatedAt); err != nil {
		return errors.NewPersistenceFailedError("save dealer rule", err)
	}
	return nil
}

// RecordRuleApplied bumps the usage counter and stamps last use.
func (s *RuleStore) RecordRuleApplied(ctx context.Context, ruleID string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE dealer_dedup_rules
		SET times_applied = times_applied + 1, last_applied_at = $2
		WHERE id = $1`, ruleID, time.Now().UTC()); err != nil {
		return errors.NewPersistenceFailedError("record rule applied", err)
	}
	return nil
}

func scanRule(rows *sql.Rows) (*models.DealerDeduplicationRule, error) {
	var rule models.DealerDeduplicationRule
	var conditionJSON, overridesJSON []byte
	var lastApplied sql.NullTime

	if err := rows.Scan(
		&rule.ID, &rule.TenantID, &rule.DealerID, &rule.Name, &rule.Priority,
		&conditionJSON, &overridesJSON,
		&rule.IsActive, &rule.TimesApplied, &lastApplied,
		&rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	condition, err := models.UnmarshalCondition(conditionJSON)
	if err != nil {
		return nil, err
	}
	rule.Condition = condition

	if len(overridesJSON) > 0 {
		if err := json.Unmarshal(overridesJSON, &rule.Overrides); err != nil {
			return nil, err
		}
	}
	if lastApplied.Valid {
		rule.LastAppliedAt = &lastApplied.Time
	}
	return &rule, nil
}
