// internal/dedup/similarity/imagehash.go
package similarity

// DefaultMaxHammingDistance is the boolean "are similar" cutoff for
// perceptual hashes.
const DefaultMaxHammingDistance = 10

// Neutral values when one or both perceptual hashes are absent. Absence is
// not evidence of mismatch, but is weaker evidence than presence.
const (
	hashNeutralBothMissing = 0.5
	hashNeutralOneMissing  = 0.3
)

// HammingDistance counts differing character positions between two hash
// strings. ok is false when the hashes are incomparable: either is empty or
// the lengths differ.
func HammingDistance(a, b string) (distance int, ok bool) {
	if a == "" || b == "" || len(a) != len(b) {
		return 0, false
	}
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			distance++
		}
	}
	return distance, true
}

// HashSimilarity returns 1 - distance/length for comparable hashes, and the
// documented neutral values when one or both hashes are absent. Equal-length
// comparison only; a length mismatch degrades to the one-missing neutral
// since the hashes cannot be compared.
func HashSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return hashNeutralBothMissing
	}
	if a == "" || b == "" {
		return hashNeutralOneMissing
	}
	distance, ok := HammingDistance(a, b)
	if !ok {
		return hashNeutralOneMissing
	}
	return 1.0 - float64(distance)/float64(len(a))
}

// AreHashesSimilar reports whether two comparable hashes are within
// maxDistance. Incomparable hashes are never similar.
func AreHashesSimilar(a, b string, maxDistance int) bool {
	distance, ok := HammingDistance(a, b)
	if !ok {
		return false
	}
	return distance <= maxDistance
}

// AnyHashesSimilar reports whether any pairing across the two photo sets is
// within maxDistance. Incomparable pairs are skipped.
func AnyHashesSimilar(hashes1, hashes2 []string, maxDistance int) bool {
	for _, h1 := range hashes1 {
		for _, h2 := range hashes2 {
			if AreHashesSimilar(h1, h2, maxDistance) {
				return true
			}
		}
	}
	return false
}

// BestHashSimilarity compares every hash of one listing against every hash
// of the other and returns the best pairwise similarity. Listings carry one
// perceptual hash per photo; the best pair is what identifies a reposted
// photo set. Returns the neutral values when either side has no hashes.
func BestHashSimilarity(hashes1, hashes2 []string) float64 {
	if len(hashes1) == 0 && len(hashes2) == 0 {
		return hashNeutralBothMissing
	}
	if len(hashes1) == 0 || len(hashes2) == 0 {
		return hashNeutralOneMissing
	}

	best := 0.0
	comparable := false
	for _, h1 := range hashes1 {
		for _, h2 := range hashes2 {
			if _, ok := HammingDistance(h1, h2); !ok {
				continue
			}
			comparable = true
			if sim := HashSimilarity(h1, h2); sim > best {
				best = sim
			}
		}
	}

	if !comparable {
		return hashNeutralOneMissing
	}
	return best
}
