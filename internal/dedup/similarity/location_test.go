// internal/dedup/similarity/location_test.go
package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance", func(t *testing.T) {
		assert.InDelta(t, 0.0, HaversineKm(43.6532, -79.3832, 43.6532, -79.3832), 1e-9)
	})

	t.Run("toronto to vancouver", func(t *testing.T) {
		got := HaversineKm(43.6532, -79.3832, 49.2827, -123.1207)
		assert.InDelta(t, 3360, got, 50)
	})

	t.Run("toronto to mississauga", func(t *testing.T) {
		got := HaversineKm(43.6532, -79.3832, 43.5890, -79.6441)
		assert.InDelta(t, 22, got, 5)
	})
}

func TestCoordinateSimilarity(t *testing.T) {
	lat1, lon1 := floatPtr(43.6532), floatPtr(-79.3832)

	t.Run("same point", func(t *testing.T) {
		assert.InDelta(t, 1.0, CoordinateSimilarity(lat1, lon1, floatPtr(43.6532), floatPtr(-79.3832), 100), 1e-9)
	})

	t.Run("beyond max distance", func(t *testing.T) {
		assert.Equal(t, 0.0, CoordinateSimilarity(lat1, lon1, floatPtr(49.2827), floatPtr(-123.1207), 100))
	})

	t.Run("missing side is neutral", func(t *testing.T) {
		assert.Equal(t, 0.5, CoordinateSimilarity(nil, nil, lat1, lon1, 100))
	})

	t.Run("zero max distance is neutral", func(t *testing.T) {
		assert.Equal(t, 0.5, CoordinateSimilarity(lat1, lon1, lat1, lon1, 0))
	})
}

func TestPostalCodeSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"exact canadian", "M5V 2T6", "m5v2t6", 1.0},
		{"same FSA", "M5V 2T6", "M5V 1A1", 0.8},
		{"same zip3", "90210", "90211", 0.7},
		{"different", "M5V 2T6", "V6B 1A1", 0.2},
		{"blank side neutral", "", "M5V 2T6", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PostalCodeSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLocationSimilarity(t *testing.T) {
	t.Run("no signals is neutral", func(t *testing.T) {
		assert.Equal(t, 0.5, LocationSimilarity(LocationInput{}, LocationInput{}, 100))
	})

	t.Run("city and province only", func(t *testing.T) {
		a := LocationInput{City: strPtr("Toronto"), Province: strPtr("ON")}
		b := LocationInput{City: strPtr("toronto"), Province: strPtr("on")}
		assert.InDelta(t, 1.0, LocationSimilarity(a, b, 100), 1e-9)
	})

	t.Run("coordinates dominate mismatched city", func(t *testing.T) {
		a := LocationInput{
			Latitude:  floatPtr(43.6532),
			Longitude: floatPtr(-79.3832),
			City:      strPtr("Toronto"),
		}
		b := LocationInput{
			Latitude:  floatPtr(43.6532),
			Longitude: floatPtr(-79.3832),
			City:      strPtr("North York"),
		}
		// coords 1.0 * 3 + city 0.0 * 1, normalized by 4.
		assert.InDelta(t, 0.75, LocationSimilarity(a, b, 100), 1e-9)
	})
}
