// internal/dedup/similarity/numeric.go
package similarity

import "math"

// PercentSimilarity is the generic percentage-based numeric comparison:
// both absent => 1.0, one absent => 0.0, otherwise linear decay to zero at
// maxPercentDiff of the pairwise average.
func PercentSimilarity(a, b *float64, maxPercentDiff float64) float64 {
	if a == nil && b == nil {
		return 1.0
	}
	if a == nil || b == nil {
		return 0.0
	}

	avg := (*a + *b) / 2.0
	if avg == 0 {
		if *a == *b {
			return 1.0
		}
		return 0.0
	}

	percentDiff := math.Abs(*a-*b) / math.Abs(avg) * 100.0
	if maxPercentDiff <= 0 || percentDiff >= maxPercentDiff {
		return 0.0
	}
	return 1.0 - percentDiff/maxPercentDiff
}

// priceTolerancePercent returns the max percent difference tolerated for a
// given price bracket. Cheaper vehicles tolerate proportionally larger
// absolute swings.
func priceTolerancePercent(avgPrice float64) float64 {
	switch {
	case avgPrice < 10_000:
		return 15.0
	case avgPrice < 30_000:
		return 10.0
	case avgPrice < 50_000:
		return 7.0
	default:
		return 5.0
	}
}

// PriceSimilarity applies the tiered price tolerance by bracket of the
// pairwise average price.
func PriceSimilarity(a, b *float64) float64 {
	if a == nil && b == nil {
		return 1.0
	}
	if a == nil || b == nil {
		return 0.0
	}
	avg := (*a + *b) / 2.0
	return PercentSimilarity(a, b, priceTolerancePercent(avg))
}

// PriceSimilarityWithTolerance compares prices under an explicit percent
// tolerance. A zero tolerance falls back to the bracketed default.
func PriceSimilarityWithTolerance(a, b *float64, tolerancePercent float64) float64 {
	if tolerancePercent <= 0 {
		return PriceSimilarity(a, b)
	}
	return PercentSimilarity(a, b, tolerancePercent)
}

const (
	// mileageFlatTolerance is the minimum absolute mileage band.
	mileageFlatTolerance = 5000.0

	defaultMileageTolerancePercent = 10.0
)

// MileageSimilarity tolerates the larger of a 5,000-unit flat band or 10%
// of the higher reading, decaying linearly to zero at that bound.
func MileageSimilarity(a, b *float64) float64 {
	return MileageSimilarityWithTolerance(a, b, defaultMileageTolerancePercent)
}

// MileageSimilarityWithTolerance takes the percent portion of the band from
// the caller. The flat band still applies as a floor, and a zero tolerance
// falls back to the 10% default.
func MileageSimilarityWithTolerance(a, b *float64, tolerancePercent float64) float64 {
	if tolerancePercent <= 0 {
		tolerancePercent = defaultMileageTolerancePercent
	}
	if a == nil && b == nil {
		return 1.0
	}
	if a == nil || b == nil {
		return 0.0
	}

	higher := math.Max(*a, *b)
	tolerance := math.Max(mileageFlatTolerance, higher*tolerancePercent/100.0)

	diff := math.Abs(*a - *b)
	if diff >= tolerance {
		return 0.0
	}
	return 1.0 - diff/tolerance
}
