// internal/dedup/rules/resolver_test.go
package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

type fakeConfigStore struct {
	config *models.DeduplicationConfig
	err    error
}

func (f *fakeConfigStore) GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error) {
	return f.config, f.err
}

type fakeRuleStore struct {
	rules      []*models.DealerDeduplicationRule
	listErr    error
	recordErr  error
	recordedID string
}

func (f *fakeRuleStore) ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error) {
	return f.rules, f.listErr
}

func (f *fakeRuleStore) RecordRuleApplied(ctx context.Context, ruleID string) error {
	f.recordedID = ruleID
	return f.recordErr
}

func fptr(v float64) *float64 { return &v }

func ruleWithPriority(id string, priority int, createdAt time.Time) *models.DealerDeduplicationRule {
	return &models.DealerDeduplicationRule{
		ID:        id,
		TenantID:  "tenant-1",
		DealerID:  "dealer-1",
		Priority:  priority,
		IsActive:  true,
		Condition: models.AlwaysCondition{},
		Overrides: models.ConfigOverrides{OverallMatchThreshold: fptr(0.95)},
		CreatedAt: createdAt,
	}
}

func testListing() *models.VehicleListing {
	price := 25000.0
	return &models.VehicleListing{
		ID:       "listing-1",
		TenantID: "tenant-1",
		DealerID: "dealer-1",
		Price:    &price,
	}
}

func TestResolve_NoRulesUsesBase(t *testing.T) {
	base := models.DefaultDeduplicationConfig("tenant-1")
	resolver := NewResolver(&fakeConfigStore{config: base}, &fakeRuleStore{}, logger.NewNoOpLogger())

	resolution, err := resolver.Resolve(context.Background(), testListing())
	require.NoError(t, err)
	assert.Same(t, base, resolution.Config)
	assert.Nil(t, resolution.AppliedRule)
}

func TestResolve_HighestPriorityWins(t *testing.T) {
	base := models.DefaultDeduplicationConfig("tenant-1")
	now := time.Now().UTC()

	low := ruleWithPriority("rule-low", 50, now)
	low.Overrides = models.ConfigOverrides{OverallMatchThreshold: fptr(0.85)}
	high := ruleWithPriority("rule-high", 100, now)
	high.Overrides = models.ConfigOverrides{OverallMatchThreshold: fptr(0.99)}

	store := &fakeRuleStore{rules: []*models.DealerDeduplicationRule{low, high}}
	resolver := NewResolver(&fakeConfigStore{config: base}, store, logger.NewNoOpLogger())

	resolution, err := resolver.Resolve(context.Background(), testListing())
	require.NoError(t, err)
	require.NotNil(t, resolution.AppliedRule)
	assert.Equal(t, "rule-high", resolution.AppliedRule.ID)
	assert.Equal(t, 0.99, resolution.Config.OverallMatchThreshold)
	assert.Equal(t, "rule-high", store.recordedID)
}

func TestResolve_PriorityTieBrokenByRecency(t *testing.T) {
	base := models.DefaultDeduplicationConfig("tenant-1")
	older := ruleWithPriority("rule-older", 100, time.Now().UTC().Add(-time.Hour))
	newer := ruleWithPriority("rule-newer", 100, time.Now().UTC())

	store := &fakeRuleStore{rules: []*models.DealerDeduplicationRule{older, newer}}
	resolver := NewResolver(&fakeConfigStore{config: base}, store, logger.NewNoOpLogger())

	resolution, err := resolver.Resolve(context.Background(), testListing())
	require.NoError(t, err)
	assert.Equal(t, "rule-newer", resolution.AppliedRule.ID)
}

func TestResolve_NonMatchingConditionSkipped(t *testing.T) {
	base := models.DefaultDeduplicationConfig("tenant-1")
	rule := ruleWithPriority("rule-1", 100, time.Now().UTC())
	rule.Condition = models.PriceRangeCondition{MinPrice: fptr(50000)}

	resolver := NewResolver(
		&fakeConfigStore{config: base},
		&fakeRuleStore{rules: []*models.DealerDeduplicationRule{rule}},
		logger.NewNoOpLogger(),
	)

	resolution, err := resolver.Resolve(context.Background(), testListing())
	require.NoError(t, err)
	assert.Nil(t, resolution.AppliedRule)
	assert.Same(t, base, resolution.Config)
}

func TestResolve_RecordFailureDoesNotBlock(t *testing.T) {
	base := models.DefaultDeduplicationConfig("tenant-1")
	rule := ruleWithPriority("rule-1", 100, time.Now().UTC())

	store := &fakeRuleStore{
		rules:     []*models.DealerDeduplicationRule{rule},
		recordErr: errors.New("counter bump failed"),
	}
	resolver := NewResolver(&fakeConfigStore{config: base}, store, logger.NewNoOpLogger())

	resolution, err := resolver.Resolve(context.Background(), testListing())
	require.NoError(t, err)
	assert.Equal(t, "rule-1", resolution.AppliedRule.ID)
}

func TestResolve_ConfigErrorPropagates(t *testing.T) {
	wantErr := errors.New("no active config")
	resolver := NewResolver(&fakeConfigStore{err: wantErr}, &fakeRuleStore{}, logger.NewNoOpLogger())

	_, err := resolver.Resolve(context.Background(), testListing())
	assert.ErrorIs(t, err, wantErr)
}
