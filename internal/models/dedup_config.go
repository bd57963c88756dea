// internal/models/dedup_config.go
package models

import (
	"fmt"
	"math"
	"time"
)

// TitleMethod selects which string-similarity technique is used for titles.
type TitleMethod string

const (
	TitleMethodLevenshtein TitleMethod = "levenshtein"
	TitleMethodJaroWinkler TitleMethod = "jaro_winkler"
	TitleMethodNGram       TitleMethod = "ngram"
)

// DeduplicationConfig is the tenant-level default scoring configuration.
// One active config per tenant; configs are toggled inactive, never deleted.
type DeduplicationConfig struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	IsActive bool   `json:"isActive"`

	// Thresholds, all in [0,1]. ReviewThreshold <= OverallMatchThreshold is
	// enforced at write time; the scorer never re-validates.
	TitleSimilarityThreshold     float64 `json:"titleSimilarityThreshold"`
	ImageHashSimilarityThreshold float64 `json:"imageHashSimilarityThreshold"`
	OverallMatchThreshold        float64 `json:"overallMatchThreshold"`
	ReviewThreshold              float64 `json:"reviewThreshold"`

	// Field weights. Not required to sum to 1; the composite score is
	// normalized by the sum of weights actually applied.
	TitleWeight     float64 `json:"titleWeight"`
	VinWeight       float64 `json:"vinWeight"`
	ImageHashWeight float64 `json:"imageHashWeight"`
	PriceWeight     float64 `json:"priceWeight"`
	MileageWeight   float64 `json:"mileageWeight"`
	LocationWeight  float64 `json:"locationWeight"`

	RequireVinMatch   bool `json:"requireVinMatch"`
	RequireImageMatch bool `json:"requireImageMatch"`

	PriceTolerancePercent   float64 `json:"priceTolerancePercent"`
	MileageTolerancePercent float64 `json:"mileageTolerancePercent"`
	MaxDistanceKm           float64 `json:"maxDistanceKm"`

	TitleMethod TitleMethod `json:"titleMethod"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultDeduplicationConfig returns the config a fresh tenant starts with.
func DefaultDeduplicationConfig(tenantID string) *DeduplicationConfig {
	now := time.Now().UTC()
	return &DeduplicationConfig{
		TenantID:                     tenantID,
		IsActive:                     true,
		TitleSimilarityThreshold:     0.85,
		ImageHashSimilarityThreshold: 0.90,
		OverallMatchThreshold:        0.90,
		ReviewThreshold:              0.75,
		TitleWeight:                  0.30,
		VinWeight:                    0.25,
		ImageHashWeight:              0.20,
		PriceWeight:                  0.10,
		MileageWeight:                0.10,
		LocationWeight:               0.05,
		PriceTolerancePercent:        10,
		MileageTolerancePercent:      10,
		MaxDistanceKm:                100,
		TitleMethod:                  TitleMethodJaroWinkler,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}
}

// Validate rejects configs that would make scoring undefined. Called on
// every write path so read paths can trust stored configs.
func (c *DeduplicationConfig) Validate() error {
	thresholds := map[string]float64{
		"titleSimilarityThreshold":     c.TitleSimilarityThreshold,
		"imageHashSimilarityThreshold": c.ImageHashSimilarityThreshold,
		"overallMatchThreshold":        c.OverallMatchThreshold,
		"reviewThreshold":              c.ReviewThreshold,
	}
	for name, v := range thresholds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite, got %v", name, v)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}

	if c.ReviewThreshold > c.OverallMatchThreshold {
		return fmt.Errorf("reviewThreshold %v must not exceed overallMatchThreshold %v",
			c.ReviewThreshold, c.OverallMatchThreshold)
	}

	weights := map[string]float64{
		"titleWeight":     c.TitleWeight,
		"vinWeight":       c.VinWeight,
		"imageHashWeight": c.ImageHashWeight,
		"priceWeight":     c.PriceWeight,
		"mileageWeight":   c.MileageWeight,
		"locationWeight":  c.LocationWeight,
	}
	for name, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%s must be finite, got %v", name, w)
		}
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, w)
		}
	}

	tolerances := map[string]float64{
		"priceTolerancePercent":   c.PriceTolerancePercent,
		"mileageTolerancePercent": c.MileageTolerancePercent,
		"maxDistanceKm":           c.MaxDistanceKm,
	}
	for name, v := range tolerances {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s must be a non-negative finite value, got %v", name, v)
		}
	}

	switch c.TitleMethod {
	case TitleMethodLevenshtein, TitleMethodJaroWinkler, TitleMethodNGram, "":
	default:
		return fmt.Errorf("unknown titleMethod %q", c.TitleMethod)
	}

	return nil
}
