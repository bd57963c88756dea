// internal/storage/postgres/config_store.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// ConfigStore persists tenant deduplication configs. Configs are toggled
// inactive rather than deleted so historical decisions stay explainable.
type ConfigStore struct {
	db *sql.DB
}

func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

const configColumns = `id, tenant_id, is_active,
	title_similarity_threshold, image_hash_similarity_threshold,
	overall_match_threshold, review_threshold,
	title_weight, vin_weight, image_hash_weight,
	price_weight, mileage_weight, location_weight,
	require_vin_match, require_image_match,
	price_tolerance_percent, mileage_tolerance_percent, max_distance_km,
	title_method, created_at, updated_at`

// GetActiveConfig returns the single active config for the tenant. Zero
// rows and more than one row are both errors; ambiguity is never resolved
// by picking silently.
func (s *ConfigStore) GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+configColumns+`
		FROM dedup_configs
		WHERE tenant_id = $1 AND is_active = TRUE`, tenantID)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("get active config", err)
	}
	defer rows.Close()

	var configs []*models.DeduplicationConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, errors.NewPersistenceFailedError("scan config", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("get active config", err)
	}

	switch len(configs) {
	case 0:
		return nil, errors.NewConfigNotFoundError(tenantID)
	case 1:
		return configs[0], nil
	default:
		return nil, errors.NewConfigAmbiguousError(tenantID, len(configs))
	}
}

// SaveConfig inserts a new config version. When the config is active, any
// previously active config for the tenant is deactivated in the same
// transaction so the one-active-per-tenant invariant holds.
func (s *ConfigStore) SaveConfig(ctx context.Context, cfg *models.DeduplicationConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.NewConfigValidationFailedError(err)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistenceFailedError("begin save config", err)
	}
	defer tx.Rollback()

	if cfg.IsActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE dedup_configs
			SET is_active = FALSE, updated_at = $2
			WHERE tenant_id = $1 AND is_active = TRUE`, cfg.TenantID, now); err != nil {
			return errors.NewPersistenceFailedError("deactivate previous config", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dedup_configs (`+configColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		cfg.ID, cfg.TenantID, cfg.IsActive,
		cfg.TitleSimilarityThreshold, cfg.ImageHashSimilarityThreshold,
		cfg.OverallMatchThreshold, cfg.ReviewThreshold,
		cfg.TitleWeight, cfg.VinWeight, cfg.ImageHashWeight,
		cfg.PriceWeight, cfg.MileageWeight, cfg.LocationWeight,
		cfg.RequireVinMatch, cfg.RequireImageMatch,
		cfg.PriceTolerancePercent, cfg.MileageTolerancePercent, cfg.MaxDistanceKm,
		string(cfg.TitleMethod), cfg.CreatedAt, cfg.UpdatedAt); err != nil {
		return errors.NewPersistenceFailedError("insert config", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistenceFailedError("commit save config", err)
	}
	return nil
}

// DeactivateConfig toggles a config inactive by id.
func (s *ConfigStore) DeactivateConfig(ctx context.Context, configID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE dedup_configs
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1`, configID, time.Now().UTC())
	if err != nil {
		return errors.NewPersistenceFailedError("deactivate config", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewPersistenceFailedError("deactivate config", err)
	}
	if affected == 0 {
		return errors.NewConfigNotFoundError(configID)
	}
	return nil
}

func scanConfig(rows *sql.Rows) (*models.DeduplicationConfig, error) {
	var cfg models.DeduplicationConfig
	var method string
	if err := rows.Scan(
		&cfg.ID, &cfg.TenantID, &cfg.IsActive,
		&cfg.TitleSimilarityThreshold, &cfg.ImageHashSimilarityThreshold,
		&cfg.OverallMatchThreshold, &cfg.ReviewThreshold,
		&cfg.TitleWeight, &cfg.VinWeight, &cfg.ImageHashWeight,
		&cfg.PriceWeight, &cfg.MileageWeight, &cfg.LocationWeight,
		&cfg.RequireVinMatch, &cfg.RequireImageMatch,
		&cfg.PriceTolerancePercent, &cfg.MileageTolerancePercent, &cfg.MaxDistanceKm,
		&method, &cfg.CreatedAt, &cfg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cfg.TitleMethod = models.TitleMethod(method)
	return &cfg, nil
}
