// internal/dedup/rules/resolver.go
package rules

import (
	"context"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

// ConfigStore reads tenant default configs. The lookup must surface
// ambiguity: more than one active config for a tenant is an error, never a
// silent pick.
type ConfigStore interface {
	GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error)
}

// RuleStore reads dealer rules and records their usage.
type RuleStore interface {
	ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error)
	RecordRuleApplied(ctx context.Context, ruleID string) error
}

// Resolution is the outcome of resolving the effective config for one
// listing: the config the scorer should use plus the rule that produced it,
// if any.
type Resolution struct {
	Config      *models.DeduplicationConfig
	AppliedRule *models.DealerDeduplicationRule
}

// Resolver selects the effective deduplication config for a listing by
// overlaying the highest-priority applicable dealer rule onto the tenant
// default.
type Resolver struct {
	configs ConfigStore
	rules   RuleStore
	logger  logger.Logger
}

func NewResolver(configs ConfigStore, rules RuleStore, log logger.Logger) *Resolver {
	return &Resolver{
		configs: configs,
		rules:   rules,
		logger:  log,
	}
}

// Resolve returns the effective config for the listing. No applicable
// active rule means the tenant default applies unchanged; that is normal,
// not an error.
func (r *Resolver) Resolve(ctx context.Context, listing *models.VehicleListing) (*Resolution, error) {
	base, err := r.configs.GetActiveConfig(ctx, listing.TenantID)
	if err != nil {
		return nil, err
	}

	dealerRules, err := r.rules.ListActiveRules(ctx, listing.TenantID, listing.DealerID)
	if err != nil {
		return nil, err
	}

	selected := selectRule(dealerRules, listing)
	if selected == nil {
		return &Resolution{Config: base}, nil
	}

	if err := r.rules.RecordRuleApplied(ctx, selected.ID); err != nil {
		// Usage counters are best-effort; a failed bump must not block scoring.
		r.logger.Warn("failed to record rule usage", map[string]interface{}{
			"ruleId": selected.ID,
			"error":  err,
		})
	}

	r.logger.Debug("dealer rule applied", map[string]interface{}{
		"ruleId":   selected.ID,
		"dealerId": listing.DealerID,
		"priority": selected.Priority,
	})

	return &Resolution{
		Config:      selected.Apply(base),
		AppliedRule: selected,
	}, nil
}

// selectRule picks the single highest-priority rule whose condition matches
// the listing. Ties on priority go to the most recently created rule.
func selectRule(dealerRules []*models.DealerDeduplicationRule, listing *models.VehicleListing) *models.DealerDeduplicationRule {
	var selected *models.DealerDeduplicationRule
	for _, rule := range dealerRules {
		if !rule.AppliesTo(listing) {
			continue
		}
		if selected == nil ||
			rule.Priority > selected.Priority ||
			(rule.Priority == selected.Priority && rule.CreatedAt.After(selected.CreatedAt)) {
			selected = rule
		}
	}
	return selected
}
