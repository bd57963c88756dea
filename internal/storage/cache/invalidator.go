// internal/storage/cache/invalidator.go
package cache

import "context"

// Invalidator bundles the per-cache invalidation hooks for write paths.
type Invalidator struct {
	Configs *ConfigCache
	Rules   *RuleCache
}

func NewInvalidator(configs *ConfigCache, rules *RuleCache) *Invalidator {
	return &Invalidator{Configs: configs, Rules: rules}
}

func (i *Invalidator) InvalidateConfig(ctx context.Context, tenantID string) error {
	return i.Configs.Invalidate(ctx, tenantID)
}

func (i *Invalidator) InvalidateRules(ctx context.Context, tenantID, dealerID string) error {
	return i.Rules.Invalidate(ctx, tenantID, dealerID)
}
