// internal/storage/cache/rule_cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

type fakeRuleSource struct {
	rules    []*models.DealerDeduplicationRule
	listHits int
	recorded []string
}

func (f *fakeRuleSource) ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error) {
	f.listHits++
	return f.rules, nil
}

func (f *fakeRuleSource) RecordRuleApplied(ctx context.Context, ruleID string) error {
	f.recorded = append(f.recorded, ruleID)
	return nil
}

func newRuleCacheFixture(t *testing.T, source *fakeRuleSource) (*RuleCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewRuleCache(client, source, time.Minute, logger.NewNoOpLogger()), srv
}

func sampleRule(id string) *models.DealerDeduplicationRule {
	threshold := 0.95
	makeFilter := "Mercedes-Benz"
	return &models.DealerDeduplicationRule{
		ID:        id,
		TenantID:  "tenant-1",
		DealerID:  "dealer-1",
		Name:      "strict vans",
		Priority:  10,
		IsActive:  true,
		Condition: models.MakeModelCondition{MakeFilter: &makeFilter},
		Overrides: models.ConfigOverrides{
			OverallMatchThreshold: &threshold,
		},
	}
}

func TestRuleCache_ReadThroughAndHit(t *testing.T) {
	source := &fakeRuleSource{rules: []*models.DealerDeduplicationRule{sampleRule("rule-1")}}
	cache, srv := newRuleCacheFixture(t, source)
	ctx := context.Background()

	first, err := cache.ListActiveRules(ctx, "tenant-1", "dealer-1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, source.listHits)
	assert.True(t, srv.Exists("dedup:rules:tenant-1:dealer-1"))

	// Second read is served from Redis, conditions intact.
	second, err := cache.ListActiveRules(ctx, "tenant-1", "dealer-1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, source.listHits)
	assert.Equal(t, "rule-1", second[0].ID)
	require.NotNil(t, second[0].Condition)
	assert.Equal(t, "make_model", second[0].Condition.Kind())
	require.NotNil(t, second[0].Overrides.OverallMatchThreshold)
	assert.Equal(t, 0.95, *second[0].Overrides.OverallMatchThreshold)
}

func TestRuleCache_InvalidateForcesReread(t *testing.T) {
	source := &fakeRuleSource{rules: []*models.DealerDeduplicationRule{sampleRule("rule-1")}}
	cache, srv := newRuleCacheFixture(t, source)
	ctx := context.Background()

	_, err := cache.ListActiveRules(ctx, "tenant-1", "dealer-1")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "tenant-1", "dealer-1"))
	assert.False(t, srv.Exists("dedup:rules:tenant-1:dealer-1"))

	_, err = cache.ListActiveRules(ctx, "tenant-1", "dealer-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.listHits)
}

func TestRuleCache_UndecodableEntryIsDropped(t *testing.T) {
	source := &fakeRuleSource{rules: []*models.DealerDeduplicationRule{sampleRule("rule-1")}}
	cache, srv := newRuleCacheFixture(t, source)
	ctx := context.Background()

	require.NoError(t, srv.Set("dedup:rules:tenant-1:dealer-1", "not json"))

	got, err := cache.ListActiveRules(ctx, "tenant-1", "dealer-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, source.listHits)
}

func TestRuleCache_RecordPassesThrough(t *testing.T) {
	source := &fakeRuleSource{}
	cache, _ := newRuleCacheFixture(t, source)

	require.NoError(t, cache.RecordRuleApplied(context.Background(), "rule-1"))
	assert.Equal(t, []string{"rule-1"}, source.recorded)
}
