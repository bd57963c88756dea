// internal/models/dealer_rule_test.go
package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

func sptr(s string) *string { return &s }

func testListing() *VehicleListing {
	return &VehicleListing{
		ID:       "listing-1",
		TenantID: "tenant-1",
		DealerID: "dealer-1",
		Price:    fptr(25000),
		Year:     iptr(2019),
		Make:     sptr("Toyota"),
		Model:    sptr("Camry"),
	}
}

func TestRuleConditions(t *testing.T) {
	listing := testListing()

	tests := []struct {
		name      string
		condition RuleCondition
		matches   bool
	}{
		{"always", AlwaysCondition{}, true},
		{"price in range", PriceRangeCondition{MinPrice: fptr(20000), MaxPrice: fptr(30000)}, true},
		{"price below min", PriceRangeCondition{MinPrice: fptr(30000)}, false},
		{"open-ended max", PriceRangeCondition{MinPrice: fptr(10000)}, true},
		{"year in range", YearRangeCondition{MinYear: iptr(2018), MaxYear: iptr(2020)}, true},
		{"year too old", YearRangeCondition{MinYear: iptr(2021)}, false},
		{"make matches case-insensitively", MakeModelCondition{MakeFilter: sptr("toyota")}, true},
		{"model mismatch", MakeModelCondition{ModelFilter: sptr("Corolla")}, false},
		{"combined all pass", CombinedCondition{
			Price:     PriceRangeCondition{MaxPrice: fptr(30000)},
			Year:      YearRangeCondition{MinYear: iptr(2015)},
			MakeModel: MakeModelCondition{MakeFilter: sptr("Toyota")},
		}, true},
		{"combined one fails", CombinedCondition{
			Price:     PriceRangeCondition{MaxPrice: fptr(20000)},
			Year:      YearRangeCondition{MinYear: iptr(2015)},
			MakeModel: MakeModelCondition{MakeFilter: sptr("Toyota")},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.condition.Matches(listing))
		})
	}
}

func TestConditionWithMissingFields(t *testing.T) {
	bare := &VehicleListing{ID: "listing-2"}

	// A set bound cannot match a listing that lacks the field.
	assert.False(t, PriceRangeCondition{MinPrice: fptr(1)}.Matches(bare))
	assert.False(t, YearRangeCondition{MinYear: iptr(2000)}.Matches(bare))
	assert.False(t, MakeModelCondition{MakeFilter: sptr("Toyota")}.Matches(bare))
	assert.True(t, AlwaysCondition{}.Matches(bare))

	// An unset bound constrains nothing, so the missing field is irrelevant.
	assert.True(t, PriceRangeCondition{}.Matches(bare))
	assert.True(t, YearRangeCondition{}.Matches(bare))
}

func TestCombinedConditionUnsetBoundsIgnoreMissingFields(t *testing.T) {
	// Only make/model is constrained; the listing has no price or year.
	condition := CombinedCondition{
		MakeModel: MakeModelCondition{MakeFilter: sptr("Toyota")},
	}

	toyota := &VehicleListing{ID: "listing-3", Make: sptr("Toyota")}
	assert.True(t, condition.Matches(toyota))

	honda := &VehicleListing{ID: "listing-4", Make: sptr("Honda")}
	assert.False(t, condition.Matches(honda))
}

func TestConditionRoundTrip(t *testing.T) {
	conditions := []RuleCondition{
		AlwaysCondition{},
		PriceRangeCondition{MinPrice: fptr(10000), MaxPrice: fptr(20000)},
		YearRangeCondition{MinYear: iptr(2018)},
		MakeModelCondition{MakeFilter: sptr("Honda"), ModelFilter: sptr("Civic")},
		CombinedCondition{
			Price: PriceRangeCondition{MaxPrice: fptr(15000)},
			Year:  YearRangeCondition{MinYear: iptr(2016), MaxYear: iptr(2020)},
		},
	}

	for _, condition := range conditions {
		t.Run(condition.Kind(), func(t *testing.T) {
			data, err := MarshalCondition(condition)
			require.NoError(t, err)

			restored, err := UnmarshalCondition(data)
			require.NoError(t, err)
			assert.Equal(t, condition.Kind(), restored.Kind())
			assert.Equal(t, condition, restored)
		})
	}
}

func TestUnmarshalCondition_Errors(t *testing.T) {
	_, err := UnmarshalCondition([]byte(`{"kind":"mystery"}`))
	assert.Error(t, err)

	_, err = UnmarshalCondition([]byte(`not json`))
	assert.Error(t, err)

	// Missing kind defaults to always; old rows predate the envelope.
	condition, err := UnmarshalCondition([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "always", condition.Kind())
}

func TestDealerRule_Apply(t *testing.T) {
	base := DefaultDeduplicationConfig("tenant-1")
	method := TitleMethodNGram
	rule := &DealerDeduplicationRule{
		ID:       "rule-1",
		TenantID: "tenant-1",
		DealerID: "dealer-1",
		IsActive: true,
		Overrides: ConfigOverrides{
			OverallMatchThreshold: fptr(0.95),
			TitleWeight:           fptr(0.5),
			RequireVinMatch:       func() *bool { b := true; return &b }(),
			TitleMethod:           &method,
		},
	}

	effective := rule.Apply(base)

	assert.Equal(t, 0.95, effective.OverallMatchThreshold)
	assert.Equal(t, 0.5, effective.TitleWeight)
	assert.True(t, effective.RequireVinMatch)
	assert.Equal(t, TitleMethodNGram, effective.TitleMethod)

	// Unset fields inherit; the base is untouched.
	assert.Equal(t, base.ReviewThreshold, effective.ReviewThreshold)
	assert.Equal(t, 0.90, base.OverallMatchThreshold)
	assert.False(t, base.RequireVinMatch)
}

func TestConfigOverrides_Validate(t *testing.T) {
	badMethod := TitleMethod("soundex")

	tests := []struct {
		name      string
		overrides ConfigOverrides
		wantErr   bool
	}{
		{"empty overrides", ConfigOverrides{}, false},
		{"valid thresholds", ConfigOverrides{OverallMatchThreshold: fptr(0.95), ReviewThreshold: fptr(0.8)}, false},
		{"negative threshold", ConfigOverrides{OverallMatchThreshold: fptr(-1.0)}, true},
		{"threshold above one", ConfigOverrides{ReviewThreshold: fptr(1.5)}, true},
		{"review above overall", ConfigOverrides{OverallMatchThreshold: fptr(0.8), ReviewThreshold: fptr(0.99)}, true},
		{"negative weight", ConfigOverrides{TitleWeight: fptr(-0.3)}, true},
		{"nan weight", ConfigOverrides{PriceWeight: fptr(math.NaN())}, true},
		{"negative tolerance", ConfigOverrides{MaxDistanceKm: fptr(-5)}, true},
		{"unknown title method", ConfigOverrides{TitleMethod: &badMethod}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.overrides.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDealerRule_AppliesTo(t *testing.T) {
	listing := testListing()

	rule := &DealerDeduplicationRule{IsActive: true, Condition: PriceRangeCondition{MaxPrice: fptr(30000)}}
	assert.True(t, rule.AppliesTo(listing))

	rule.IsActive = false
	assert.False(t, rule.AppliesTo(listing))

	// A nil condition means unconditional.
	unconditional := &DealerDeduplicationRule{IsActive: true}
	assert.True(t, unconditional.AppliesTo(listing))
}
