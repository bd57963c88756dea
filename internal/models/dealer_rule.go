// internal/models/dealer_rule.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// RuleCondition decides whether a dealer rule applies to a given listing.
// Each variant carries exactly the filter fields it needs.
type RuleCondition interface {
	Kind() string
	Matches(listing *VehicleListing) bool
}

// AlwaysCondition applies the rule unconditionally.
type AlwaysCondition struct{}

func (AlwaysCondition) Kind() string { return "always" }

func (AlwaysCondition) Matches(*VehicleListing) bool { return true }

// PriceRangeCondition bounds the listing price. Either bound may be nil.
type PriceRangeCondition struct {
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
}

func (PriceRangeCondition) Kind() string { return "price_range" }

func (c PriceRangeCondition) Matches(l *VehicleListing) bool {
	// A listing without a price only fails when a bound actually constrains it.
	if c.MinPrice != nil && (l.Price == nil || *l.Price < *c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && (l.Price == nil || *l.Price > *c.MaxPrice) {
		return false
	}
	return true
}

// YearRangeCondition bounds the model year. Either bound may be nil.
type YearRangeCondition struct {
	MinYear *int `json:"minYear,omitempty"`
	MaxYear *int `json:"maxYear,omitempty"`
}

func (YearRangeCondition) Kind() string { return "year_range" }

func (c YearRangeCondition) Matches(l *VehicleListing) bool {
	if c.MinYear != nil && (l.Year == nil || *l.Year < *c.MinYear) {
		return false
	}
	if c.MaxYear != nil && (l.Year == nil || *l.Year > *c.MaxYear) {
		return false
	}
	return true
}

// MakeModelCondition matches make and/or model case-insensitively. A nil
// filter means that attribute is not constrained.
type MakeModelCondition struct {
	MakeFilter  *string `json:"makeFilter,omitempty"`
	ModelFilter *string `json:"modelFilter,omitempty"`
}

func (MakeModelCondition) Kind() string { return "make_model" }

func (c MakeModelCondition) Matches(l *VehicleListing) bool {
	if c.MakeFilter != nil {
		if l.Make == nil || !strings.EqualFold(*l.Make, *c.MakeFilter) {
			return false
		}
	}
	if c.ModelFilter != nil {
		if l.Model == nil || !strings.EqualFold(*l.Model, *c.ModelFilter) {
			return false
		}
	}
	return true
}

// CombinedCondition requires the price, year, and make/model checks to all pass.
type CombinedCondition struct {
	Price     PriceRangeCondition `json:"price"`
	Year      YearRangeCondition  `json:"year"`
	MakeModel MakeModelCondition  `json:"makeModel"`
}

func (CombinedCondition) Kind() string { return "combined" }

func (c CombinedCondition) Matches(l *VehicleListing) bool {
	return c.Price.Matches(l) && c.Year.Matches(l) && c.MakeModel.Matches(l)
}

// conditionEnvelope is the stored JSON form: a kind tag plus the variant payload.
type conditionEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalCondition serializes a condition for storage.
func MarshalCondition(c RuleCondition) ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionEnvelope{Kind: c.Kind(), Payload: payload})
}

// UnmarshalCondition restores a condition from its stored JSON form.
func UnmarshalCondition(data []byte) (RuleCondition, error) {
	var env conditionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode condition envelope: %w", err)
	}

	switch env.Kind {
	case "always", "":
		return AlwaysCondition{}, nil
	case "price_range":
		var c PriceRangeCondition
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode price_range condition: %w", err)
		}
		return c, nil
	case "year_range":
		var c YearRangeCondition
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode year_range condition: %w", err)
		}
		return c, nil
	case "make_model":
		var c MakeModelCondition
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode make_model condition: %w", err)
		}
		return c, nil
	case "combined":
		var c CombinedCondition
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode combined condition: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown condition kind %q", env.Kind)
	}
}

// ConfigOverrides holds the per-field overrides a dealer rule may carry.
// Nil means inherit the tenant default.
type ConfigOverrides struct {
	TitleSimilarityThreshold     *float64 `json:"titleSimilarityThreshold,omitempty"`
	ImageHashSimilarityThreshold *float64 `json:"imageHashSimilarityThreshold,omitempty"`
	OverallMatchThreshold        *float64 `json:"overallMatchThreshold,omitempty"`
	ReviewThreshold              *float64 `json:"reviewThreshold,omitempty"`

	TitleWeight     *float64 `json:"titleWeight,omitempty"`
	VinWeight       *float64 `json:"vinWeight,omitempty"`
	ImageHashWeight *float64 `json:"imageHashWeight,omitempty"`
	PriceWeight     *float64 `json:"priceWeight,omitempty"`
	MileageWeight   *float64 `json:"mileageWeight,omitempty"`
	LocationWeight  *float64 `json:"locationWeight,omitempty"`

	RequireVinMatch   *bool `json:"requireVinMatch,omitempty"`
	RequireImageMatch *bool `json:"requireImageMatch,omitempty"`

	PriceTolerancePercent   *float64 `json:"priceTolerancePercent,omitempty"`
	MileageTolerancePercent *float64 `json:"mileageTolerancePercent,omitempty"`
	MaxDistanceKm           *float64 `json:"maxDistanceKm,omitempty"`

	TitleMethod *TitleMethod `json:"titleMethod,omitempty"`
}

// Validate rejects override values that would make scoring undefined,
// mirroring DeduplicationConfig.Validate for every set field. Called on
// every rule write path so resolution never re-validates.
func (o ConfigOverrides) Validate() error {
	thresholds := map[string]*float64{
		"titleSimilarityThreshold":     o.TitleSimilarityThreshold,
		"imageHashSimilarityThreshold": o.ImageHashSimilarityThreshold,
		"overallMatchThreshold":        o.OverallMatchThreshold,
		"reviewThreshold":              o.ReviewThreshold,
	}
	for name, v := range thresholds {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("%s override must be finite, got %v", name, *v)
		}
		if *v < 0 || *v > 1 {
			return fmt.Errorf("%s override must be in [0,1], got %v", name, *v)
		}
	}

	if o.ReviewThreshold != nil && o.OverallMatchThreshold != nil &&
		*o.ReviewThreshold > *o.OverallMatchThreshold {
		return fmt.Errorf("reviewThreshold override %v must not exceed overallMatchThreshold override %v",
			*o.ReviewThreshold, *o.OverallMatchThreshold)
	}

	weights := map[string]*float64{
		"titleWeight":     o.TitleWeight,
		"vinWeight":       o.VinWeight,
		"imageHashWeight": o.ImageHashWeight,
		"priceWeight":     o.PriceWeight,
		"mileageWeight":   o.MileageWeight,
		"locationWeight":  o.LocationWeight,
	}
	for name, w := range weights {
		if w == nil {
			continue
		}
		if math.IsNaN(*w) || math.IsInf(*w, 0) {
			return fmt.Errorf("%s override must be finite, got %v", name, *w)
		}
		if *w < 0 {
			return fmt.Errorf("%s override must not be negative, got %v", name, *w)
		}
	}

	tolerances := map[string]*float64{
		"priceTolerancePercent":   o.PriceTolerancePercent,
		"mileageTolerancePercent": o.MileageTolerancePercent,
		"maxDistanceKm":           o.MaxDistanceKm,
	}
	for name, v := range tolerances {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			return fmt.Errorf("%s override must be a non-negative finite value, got %v", name, *v)
		}
	}

	if o.TitleMethod != nil {
		switch *o.TitleMethod {
		case TitleMethodLevenshtein, TitleMethodJaroWinkler, TitleMethodNGram:
		default:
			return fmt.Errorf("unknown titleMethod override %q", *o.TitleMethod)
		}
	}

	return nil
}

// DealerDeduplicationRule is a conditional per-dealer override of the tenant
// default config. Highest priority applicable rule wins.
type DealerDeduplicationRule struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"`
	DealerID  string          `json:"dealerId"`
	Name      string          `json:"name"`
	Priority  int             `json:"priority"`
	Condition RuleCondition   `json:"-"`
	Overrides ConfigOverrides `json:"overrides"`
	IsActive  bool            `json:"isActive"`

	TimesApplied  int64      `json:"timesApplied"`
	LastAppliedAt *time.Time `json:"lastAppliedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate rejects rules whose overrides would break scoring.
func (r *DealerDeduplicationRule) Validate() error {
	return r.Overrides.Validate()
}

// AppliesTo reports whether the rule is live and its condition matches.
func (r *DealerDeduplicationRule) AppliesTo(listing *VehicleListing) bool {
	if !r.IsActive {
		return false
	}
	if r.Condition == nil {
		return true
	}
	return r.Condition.Matches(listing)
}

// Apply overlays the rule's set fields onto a copy of the base config.
// Unset fields inherit the base value.
func (r *DealerDeduplicationRule) Apply(base *DeduplicationConfig) *DeduplicationConfig {
	effective := *base
	o := r.Overrides

	if o.TitleSimilarityThreshold != nil {
		effective.TitleSimilarityThreshold = *o.TitleSimilarityThreshold
	}
	if o.ImageHashSimilarityThreshold != nil {
		effective.ImageHashSimilarityThreshold = *o.ImageHashSimilarityThreshold
	}
	if o.OverallMatchThreshold != nil {
		effective.OverallMatchThreshold = *o.OverallMatchThreshold
	}
	if o.ReviewThreshold != nil {
		effective.ReviewThreshold = *o.ReviewThreshold
	}
	if o.TitleWeight != nil {
		effective.TitleWeight = *o.TitleWeight
	}
	if o.VinWeight != nil {
		effective.VinWeight = *o.VinWeight
	}
	if o.ImageHashWeight != nil {
		effective.ImageHashWeight = *o.ImageHashWeight
	}
	if o.PriceWeight != nil {
		effective.PriceWeight = *o.PriceWeight
	}
	if o.MileageWeight != nil {
		effective.MileageWeight = *o.MileageWeight
	}
	if o.LocationWeight != nil {
		effective.LocationWeight = *o.LocationWeight
	}
	if o.RequireVinMatch != nil {
		effective.RequireVinMatch = *o.RequireVinMatch
	}
	if o.RequireImageMatch != nil {
		effective.RequireImageMatch = *o.RequireImageMatch
	}
	if o.PriceTolerancePercent != nil {
		effective.PriceTolerancePercent = *o.PriceTolerancePercent
	}
	if o.MileageTolerancePercent != nil {
		effective.MileageTolerancePercent = *o.MileageTolerancePercent
	}
	if o.MaxDistanceKm != nil {
		effective.MaxDistanceKm = *o.MaxDistanceKm
	}
	if o.TitleMethod != nil {
		effective.TitleMethod = *o.TitleMethod
	}

	return &effective
}
