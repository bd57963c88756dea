// internal/storage/cache/rule_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/models"
)

// storedRule is the cached wire form of a rule. The condition needs its
// kind-tagged envelope, so it cannot ride on the struct's default JSON.
type storedRule struct {
	Rule      *models.DealerDeduplicationRule `json:"rule"`
	Condition json.RawMessage                 `json:"condition"`
}

// RuleCache is a read-through Redis cache over the dealer rule store.
// Misses and Redis failures fall through to Postgres; a broken cache slows
// scoring down but never breaks it.
type RuleCache struct {
	client *redis.Client
	store  RuleSource
	ttl    time.Duration
	logger logger.Logger
}

// RuleSource is the backing store the cache reads through to.
type RuleSource interface {
	ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error)
	RecordRuleApplied(ctx context.Context, ruleID string) error
}

func NewRuleCache(client *redis.Client, store RuleSource, ttl time.Duration, log logger.Logger) *RuleCache {
	return &RuleCache{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: log,
	}
}

func ruleKey(tenantID, dealerID string) string {
	return fmt.Sprintf("dedup:rules:%s:%s", tenantID, dealerID)
}

// ListActiveRules serves rules from cache when fresh, reading through on a
// miss.
func (c *RuleCache) ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error) {
	key := ruleKey(tenantID, dealerID)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		ruleList, decodeErr := decodeRules([]byte(cached))
		if decodeErr == nil {
			return ruleList, nil
		}
		c.logger.Warn("dropping undecodable rule cache entry", map[string]interface{}{
			"key":   key,
			"error": decodeErr,
		})
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("rule cache read failed, falling back to store", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	ruleList, err := c.store.ListActiveRules(ctx, tenantID, dealerID)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeRules(ruleList)
	if err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("rule cache write failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
	return ruleList, nil
}

// RecordRuleApplied passes through; usage counters are not cached.
func (c *RuleCache) RecordRuleApplied(ctx context.Context, ruleID string) error {
	return c.store.RecordRuleApplied(ctx, ruleID)
}

// Invalidate drops the cached rules for a dealer. Called after rule writes.
func (c *RuleCache) Invalidate(ctx context.Context, tenantID, dealerID string) error {
	return c.client.Del(ctx, ruleKey(tenantID, dealerID)).Err()
}

func encodeRules(ruleList []*models.DealerDeduplicationRule) ([]byte, error) {
	stored := make([]storedRule, 0, len(ruleList))
	for _, rule := range ruleList {
		condition := rule.Condition
		if condition == nil {
			condition = models.AlwaysCondition{}
		}
		conditionJSON, err := models.MarshalCondition(condition)
		if err != nil {
			return nil, err
		}
		stored = append(stored, storedRule{Rule: rule, Condition: conditionJSON})
	}
	return json.Marshal(stored)
}

func decodeRules(data []byte) ([]*models.DealerDeduplicationRule, error) {
	var stored []storedRule
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	ruleList := make([]*models.DealerDeduplicationRule, 0, len(stored))
	for _, s := range stored {
		condition, err := models.UnmarshalCondition(s.Condition)
		if err != nil {
			return nil, err
		}
		s.Rule.Condition = condition
		ruleList = append(ruleList, s.Rule)
	}
	return ruleList, nil
}
