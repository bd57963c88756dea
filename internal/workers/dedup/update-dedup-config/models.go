// internal/workers/dedup/update-dedup-config/models.go
package updatededupconfig

import "vehicle-dedup-workers/internal/models"

// Input carries either a replacement tenant config, a dealer rule to
// upsert, or both. The rule condition arrives in its kind-tagged JSON form.
type Input struct {
	TenantID string                      `json:"tenantId"`
	Config   *models.DeduplicationConfig `json:"config,omitempty"`
	Rule     *RuleInput                  `json:"rule,omitempty"`
}

type RuleInput struct {
	ID        string                 `json:"id,omitempty"`
	DealerID  string                 `json:"dealerId"`
	Name      string                 `json:"name"`
	Priority  int                    `json:"priority"`
	Condition map[string]interface{} `json:"condition,omitempty"`
	Overrides models.ConfigOverrides `json:"overrides"`
	IsActive  bool                   `json:"isActive"`
}

type Output struct {
	TenantID      string `json:"tenantId"`
	ConfigID      string `json:"configId,omitempty"`
	RuleID        string `json:"ruleId,omitempty"`
	CacheCleared  bool   `json:"cacheCleared"`
}
