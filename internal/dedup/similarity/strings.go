// internal/dedup/similarity/strings.go
package similarity

import "strings"

// Levenshtein returns the edit distance between a and b, case-insensitive.
func Levenshtein(a, b string) int {
	r1 := []rune(strings.ToLower(a))
	r2 := []rune(strings.ToLower(b))
	len1, len2 := len(r1), len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	row := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		row[j] = j
	}

	for i := 1; i <= len1; i++ {
		prev := i
		for j := 1; j <= len2; j++ {
			val := row[j]
			if r1[i-1] == r2[j-1] {
				val = row[j-1]
			} else {
				val = minInt(minInt(row[j-1]+1, prev+1), row[j]+1)
			}
			row[j-1] = prev
			prev = val
		}
		row[len2] = prev
	}
	return row[len2]
}

// LevenshteinSimilarity returns 1 - distance/max(len). Empty vs empty is 1.0.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := maxInt(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// JaroSimilarity computes the Jaro similarity with the standard sliding
// match window of max(len)/2 - 1 and transposition counting.
// Both empty => 1.0; either empty => 0.0.
func JaroSimilarity(a, b string) float64 {
	r1 := []rune(strings.ToLower(a))
	r2 := []rune(strings.ToLower(b))
	len1, len2 := len(r1), len(r2)

	if len1 == 0 && len2 == 0 {
		return 1.0
	}
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	window := maxInt(len1, len2)/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)

	matches := 0
	for i := 0; i < len1; i++ {
		lo := maxInt(0, i-window)
		hi := minInt(len2-1, i+window)
		for j := lo; j <= hi; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2.0
	return (m/float64(len1) + m/float64(len2) + (m-t)/m) / 3.0
}

// jaroWinklerPrefixScale is the fixed Winkler scaling factor.
const jaroWinklerPrefixScale = 0.1

// JaroWinklerSimilarity boosts Jaro similarity by a common prefix of up to
// four characters.
func JaroWinklerSimilarity(a, b string) float64 {
	jaro := JaroSimilarity(a, b)

	r1 := []rune(strings.ToLower(a))
	r2 := []rune(strings.ToLower(b))

	prefix := 0
	for i := 0; i < minInt(minInt(len(r1), len(r2)), 4); i++ {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}

	return jaro + float64(prefix)*jaroWinklerPrefixScale*(1.0-jaro)
}

// DefaultNGramSize is the shingle width used for title comparison.
const DefaultNGramSize = 2

// NGramJaccardSimilarity returns the Jaccard similarity of the character
// n-gram sets of a and b. Strings shorter than n contribute a single
// shingle. Both empty => 1.0; either empty => 0.0.
func NGramJaccardSimilarity(a, b string, n int) float64 {
	if n < 1 {
		n = 1
	}
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	set1 := shingles(a, n)
	set2 := shingles(b, n)

	intersection := 0
	for g := range set1 {
		if _, ok := set2[g]; ok {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

func shingles(s string, n int) map[string]struct{} {
	runes := []rune(s)
	set := make(map[string]struct{})
	if len(runes) < n {
		set[s] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
