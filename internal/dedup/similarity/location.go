// internal/dedup/similarity/location.go
package similarity

import (
	"math"
	"strings"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

const locationNeutral = 0.5

// Relative weights of the location signals that are present.
const (
	coordinateSignalWeight = 3.0
	postalSignalWeight     = 2.0
	citySignalWeight       = 1.0
	provinceSignalWeight   = 0.5
)

// HaversineKm returns the great-circle distance in kilometres between two
// latitude/longitude points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// CoordinateSimilarity decays linearly from 1.0 at distance zero to 0.0 at
// maxDistanceKm. Missing coordinates on either side are neutral.
func CoordinateSimilarity(lat1, lon1, lat2, lon2 *float64, maxDistanceKm float64) float64 {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return locationNeutral
	}
	if maxDistanceKm <= 0 {
		return locationNeutral
	}

	distance := HaversineKm(*lat1, *lon1, *lat2, *lon2)
	if distance >= maxDistanceKm {
		return 0.0
	}
	return 1.0 - distance/maxDistanceKm
}

// normalizePostal strips spaces and hyphens and uppercases.
func normalizePostal(code string) string {
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(code)
}

// PostalCodeSimilarity compares normalized postal codes. Exact match is 1.0.
// A three-character prefix match scores 0.8 for letter-leading codes
// (Canadian FSA) and 0.7 for digit-leading codes (US ZIP3). Anything else
// is 0.2. Blank on either side is neutral.
func PostalCodeSimilarity(a, b string) float64 {
	na := normalizePostal(a)
	nb := normalizePostal(b)

	if na == "" || nb == "" {
		return locationNeutral
	}
	if na == nb {
		return 1.0
	}
	if len(na) >= 3 && len(nb) >= 3 && na[:3] == nb[:3] {
		if na[0] >= 'A' && na[0] <= 'Z' {
			return 0.8
		}
		return 0.7
	}
	return 0.2
}

// LocationInput carries whichever location signals a listing has.
type LocationInput struct {
	Latitude   *float64
	Longitude  *float64
	PostalCode *string
	City       *string
	Province   *string
}

// LocationSimilarity combines the available location signals as a weighted
// average, normalized by the weights actually used. Coordinates weigh 3,
// postal code 2, city exact match 1, province exact match 0.5. With no
// signal at all the result is neutral.
func LocationSimilarity(a, b LocationInput, maxDistanceKm float64) float64 {
	total := 0.0
	weightUsed := 0.0

	if a.Latitude != nil && a.Longitude != nil && b.Latitude != nil && b.Longitude != nil {
		total += coordinateSignalWeight * CoordinateSimilarity(a.Latitude, a.Longitude, b.Latitude, b.Longitude, maxDistanceKm)
		weightUsed += coordinateSignalWeight
	}

	if a.PostalCode != nil && b.PostalCode != nil &&
		normalizePostal(*a.PostalCode) != "" && normalizePostal(*b.PostalCode) != "" {
		total += postalSignalWeight * PostalCodeSimilarity(*a.PostalCode, *b.PostalCode)
		weightUsed += postalSignalWeight
	}

	if a.City != nil && b.City != nil && *a.City != "" && *b.City != "" {
		score := 0.0
		if strings.EqualFold(strings.TrimSpace(*a.City), strings.TrimSpace(*b.City)) {
			score = 1.0
		}
		total += citySignalWeight * score
		weightUsed += citySignalWeight
	}

	if a.Province != nil && b.Province != nil && *a.Province != "" && *b.Province != "" {
		score := 0.0
		if strings.EqualFold(strings.TrimSpace(*a.Province), strings.TrimSpace(*b.Province)) {
			score = 1.0
		}
		total += provinceSignalWeight * score
		weightUsed += provinceSignalWeight
	}

	if weightUsed == 0 {
		return locationNeutral
	}
	return total / weightUsed
}
