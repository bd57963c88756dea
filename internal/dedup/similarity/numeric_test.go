// internal/dedup/similarity/numeric_test.go
package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, PercentSimilarity(nil, nil, 10))
	assert.Equal(t, 0.0, PercentSimilarity(floatPtr(100), nil, 10))
	assert.Equal(t, 1.0, PercentSimilarity(floatPtr(100), floatPtr(100), 10))
	assert.Equal(t, 0.0, PercentSimilarity(floatPtr(100), floatPtr(200), 10))

	// 5% apart with 10% tolerated decays halfway.
	got := PercentSimilarity(floatPtr(97.5), floatPtr(102.5), 10)
	assert.InDelta(t, 0.5, got, 1e-9)

	t.Run("zero average", func(t *testing.T) {
		assert.Equal(t, 1.0, PercentSimilarity(floatPtr(0), floatPtr(0), 10))
	})
}

func TestPriceSimilarity(t *testing.T) {
	t.Run("absence policy", func(t *testing.T) {
		assert.Equal(t, 1.0, PriceSimilarity(nil, nil))
		assert.Equal(t, 0.0, PriceSimilarity(floatPtr(25000), nil))
	})

	t.Run("identical prices", func(t *testing.T) {
		assert.Equal(t, 1.0, PriceSimilarity(floatPtr(25000), floatPtr(25000)))
	})

	t.Run("cheap cars tolerate wider swings", func(t *testing.T) {
		// Same absolute gap, different brackets.
		cheap := PriceSimilarity(floatPtr(7000), floatPtr(7500))
		expensive := PriceSimilarity(floatPtr(55000), floatPtr(55500))
		assert.Greater(t, cheap, 0.0)
		assert.Greater(t, expensive, 0.0)
		// 7000 vs 7500 is about 6.9% of average against 15% tolerated;
		// 55000 vs 55500 is about 0.9% against 5% tolerated.
		assert.InDelta(t, 0.54, cheap, 0.02)
		assert.InDelta(t, 0.82, expensive, 0.02)
	})

	t.Run("far apart is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, PriceSimilarity(floatPtr(20000), floatPtr(40000)))
	})
}

func TestPriceSimilarityWithTolerance(t *testing.T) {
	t.Run("explicit tolerance replaces the bracket", func(t *testing.T) {
		// 7000 vs 8500 is about 19% of average, beyond the 15% bracket.
		assert.Equal(t, 0.0, PriceSimilarityWithTolerance(floatPtr(7000), floatPtr(8500), 0))
		wide := PriceSimilarityWithTolerance(floatPtr(7000), floatPtr(8500), 30)
		assert.InDelta(t, 0.35, wide, 0.02)
	})

	t.Run("zero tolerance keeps bracket behavior", func(t *testing.T) {
		assert.Equal(t,
			PriceSimilarity(floatPtr(7000), floatPtr(7500)),
			PriceSimilarityWithTolerance(floatPtr(7000), floatPtr(7500), 0))
	})
}

func TestMileageSimilarityWithTolerance(t *testing.T) {
	// 18,000 apart on a 118,000 reading: zero at 10%, partial credit at 20%.
	assert.Equal(t, 0.0, MileageSimilarityWithTolerance(floatPtr(100000), floatPtr(118000), 10))
	wide := MileageSimilarityWithTolerance(floatPtr(100000), floatPtr(118000), 20)
	assert.InDelta(t, 0.237, wide, 0.01)

	t.Run("flat band still floors", func(t *testing.T) {
		got := MileageSimilarityWithTolerance(floatPtr(10000), floatPtr(12500), 1)
		assert.InDelta(t, 0.5, got, 1e-9)
	})
}

func TestMileageSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, MileageSimilarity(nil, nil))
	assert.Equal(t, 0.0, MileageSimilarity(floatPtr(40000), nil))
	assert.Equal(t, 1.0, MileageSimilarity(floatPtr(40000), floatPtr(40000)))

	t.Run("flat band at low mileage", func(t *testing.T) {
		// Higher reading is 12,000, so the 5,000 flat band applies.
		got := MileageSimilarity(floatPtr(10000), floatPtr(12500))
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("percentage band at high mileage", func(t *testing.T) {
		// 10% of 200,000 is 20,000; a 10,000 gap decays halfway.
		got := MileageSimilarity(floatPtr(190000), floatPtr(200000))
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("beyond tolerance is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, MileageSimilarity(floatPtr(10000), floatPtr(60000)))
	})
}
