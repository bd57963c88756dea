// internal/workers/dedup/update-dedup-config/handler_test.go
package updatededupconfig

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

type fakeConfigWriter struct {
	saved []*models.DeduplicationConfig
}

func (f *fakeConfigWriter) SaveConfig(ctx context.Context, cfg *models.DeduplicationConfig) error {
	if cfg.ID == "" {
		cfg.ID = "config-generated"
	}
	f.saved = append(f.saved, cfg)
	return nil
}

type fakeRuleWriter struct {
	saved []*models.DealerDeduplicationRule
}

func (f *fakeRuleWriter) SaveRule(ctx context.Context, rule *models.DealerDeduplicationRule) error {
	if rule.ID == "" {
		rule.ID = "rule-generated"
	}
	f.saved = append(f.saved, rule)
	return nil
}

type fakeInvalidator struct {
	configTenants []string
	ruleDealers   []string
	err           error
}

func (f *fakeInvalidator) InvalidateConfig(ctx context.Context, tenantID string) error {
	if f.err != nil {
		return f.err
	}
	f.configTenants = append(f.configTenants, tenantID)
	return nil
}

func (f *fakeInvalidator) InvalidateRules(ctx context.Context, tenantID, dealerID string) error {
	if f.err != nil {
		return f.err
	}
	f.ruleDealers = append(f.ruleDealers, dealerID)
	return nil
}

func newTestHandler() (*Handler, *fakeConfigWriter, *fakeRuleWriter, *fakeInvalidator) {
	configs := &fakeConfigWriter{}
	rules := &fakeRuleWriter{}
	cache := &fakeInvalidator{}
	h := NewHandler(LoadConfig(), configs, rules, cache, logger.NewNoOpLogger())
	return h, configs, rules, cache
}

func TestExecute_SavesConfigAndClearsCache(t *testing.T) {
	h, configs, _, cache := newTestHandler()

	cfg := models.DefaultDeduplicationConfig("")
	output, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Config:   cfg,
	})
	require.NoError(t, err)

	require.Len(t, configs.saved, 1)
	assert.Equal(t, "tenant-1", configs.saved[0].TenantID)
	assert.Equal(t, "config-generated", output.ConfigID)
	assert.True(t, output.CacheCleared)
	assert.Equal(t, []string{"tenant-1"}, cache.configTenants)
}

func TestExecute_UpsertsRuleWithCondition(t *testing.T) {
	h, _, rules, cache := newTestHandler()

	threshold := 0.95
	output, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Rule: &RuleInput{
			DealerID: "dealer-1",
			Name:     "luxury inventory",
			Priority: 20,
			IsActive: true,
			Condition: map[string]interface{}{
				"kind":    "price_range",
				"payload": map[string]interface{}{"minPrice": 50000.0},
			},
			Overrides: models.ConfigOverrides{
				OverallMatchThreshold: &threshold,
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, rules.saved, 1)
	rule := rules.saved[0]
	assert.Equal(t, "rule-generated", output.RuleID)
	assert.Equal(t, "price_range", rule.Condition.Kind())
	require.NotNil(t, rule.Overrides.OverallMatchThreshold)
	assert.Equal(t, []string{"dealer-1"}, cache.ruleDealers)
}

func TestExecute_RuleWithoutConditionAppliesAlways(t *testing.T) {
	h, _, rules, _ := newTestHandler()

	_, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Rule: &RuleInput{
			DealerID: "dealer-1",
			Name:     "blanket override",
			IsActive: true,
		},
	})
	require.NoError(t, err)

	require.Len(t, rules.saved, 1)
	assert.Equal(t, "always", rules.saved[0].Condition.Kind())
}

func TestExecute_RejectsEmptyInput(t *testing.T) {
	h, _, _, _ := newTestHandler()

	_, err := h.Execute(context.Background(), &Input{TenantID: "tenant-1"})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, errors.AsStandardError(err, &stdErr))
	assert.Equal(t, errors.ErrCodeConfigValidationFailed, stdErr.Code)
}

func TestExecute_RejectsInvalidConfig(t *testing.T) {
	h, configs, _, _ := newTestHandler()

	cfg := models.DefaultDeduplicationConfig("tenant-1")
	cfg.ReviewThreshold = 0.95 // above the overall threshold

	_, err := h.Execute(context.Background(), &Input{TenantID: "tenant-1", Config: cfg})
	require.Error(t, err)
	assert.Empty(t, configs.saved)
}

func TestExecute_RejectsInvalidRuleOverrides(t *testing.T) {
	h, _, rules, _ := newTestHandler()

	overall := -1.0
	review := 0.99
	_, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Rule: &RuleInput{
			DealerID: "dealer-1",
			Name:     "broken thresholds",
			IsActive: true,
			Overrides: models.ConfigOverrides{
				OverallMatchThreshold: &overall,
				ReviewThreshold:       &review,
			},
		},
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigValidationFailed))
	assert.Empty(t, rules.saved)
}

func TestExecute_RejectsUnknownConditionKind(t *testing.T) {
	h, _, rules, _ := newTestHandler()

	_, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Rule: &RuleInput{
			DealerID:  "dealer-1",
			Name:      "bad condition",
			IsActive:  true,
			Condition: map[string]interface{}{"kind": "moon_phase"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, rules.saved)
}

func TestExecute_CacheFailureStillSucceeds(t *testing.T) {
	configs := &fakeConfigWriter{}
	cache := &fakeInvalidator{err: fmt.Errorf("connection refused")}
	h := NewHandler(LoadConfig(), configs, &fakeRuleWriter{}, cache, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), &Input{
		TenantID: "tenant-1",
		Config:   models.DefaultDeduplicationConfig("tenant-1"),
	})
	require.NoError(t, err)
	assert.False(t, output.CacheCleared)
	require.Len(t, configs.saved, 1)
}
