// internal/dedup/scoring/scorer.go
package scoring

import (
	"strings"

	"vehicle-dedup-workers/internal/dedup/similarity"
	"vehicle-dedup-workers/internal/models"
)

// Result is the scorer's verdict on one candidate pair. Authoritative-key
// outcomes short-circuit: Score stays nil and the decision is final before
// any weighted scoring happens.
type Result struct {
	ShortCircuit bool
	Decision     models.MatchDecision
	Reason       models.MatchReason
	Confidence   models.MatchConfidence
	Score        *float64
	Breakdown    models.ScoreBreakdown

	// ImageGatePassed is false when the effective config requires an image
	// match and no image sub-score met the image hash threshold. The
	// decision engine caps such pairs at a near match.
	ImageGatePassed bool
}

// Scorer combines the field calculators into one composite score using the
// effective (rule-resolved) config. Pure and stateless; safe to share
// across goroutines.
type Scorer struct {
	maxHammingDistance int
}

func NewScorer() *Scorer {
	return NewScorerWithMaxHamming(similarity.DefaultMaxHammingDistance)
}

// NewScorerWithMaxHamming sets the Hamming cutoff under which two photo
// sets count as image evidence when naming the match reason.
func NewScorerWithMaxHamming(maxDistance int) *Scorer {
	return &Scorer{maxHammingDistance: maxDistance}
}

// Score evaluates the pair under the effective config.
func (s *Scorer) Score(cfg *models.DeduplicationConfig, a, b *models.VehicleListing) Result {
	// 1. Authoritative keys bypass weighted scoring entirely.
	if vinsEqual(a.VIN, b.VIN) {
		return Result{
			ShortCircuit:    true,
			Decision:        models.DecisionDuplicate,
			Reason:          models.ReasonVinMatch,
			Confidence:      models.ConfidenceExact,
			Breakdown:       models.ScoreBreakdown{Reason: "identical VIN"},
			ImageGatePassed: true,
		}
	}

	if cfg.RequireVinMatch && bothPresent(a.VIN, b.VIN) {
		// VINs exist on both sides and differ; under a VIN-required config
		// that settles it.
		return Result{
			ShortCircuit:    true,
			Decision:        models.DecisionNewListing,
			Reason:          models.ReasonNoMatch,
			Confidence:      models.ConfidenceVeryLow,
			Breakdown:       models.ScoreBreakdown{Reason: "VIN mismatch with VIN match required"},
			ImageGatePassed: true,
		}
	}

	if externalIDsEqual(a, b) {
		return Result{
			ShortCircuit:    true,
			Decision:        models.DecisionDuplicate,
			Reason:          models.ReasonExternalIDMatch,
			Confidence:      models.ConfidenceExact,
			Breakdown:       models.ScoreBreakdown{Reason: "same external ID on same source site"},
			ImageGatePassed: true,
		}
	}

	// 2. Field sub-scores. Weights are normalized by the sum actually
	// applied, so skipped fields carry no weight at all.
	total := 0.0
	weightUsed := 0.0
	breakdown := models.ScoreBreakdown{}

	if cfg.TitleWeight > 0 && (deref(a.Title) != "" || deref(b.Title) != "") {
		score := titleSimilarity(cfg.TitleMethod, deref(a.Title), deref(b.Title))
		breakdown.Title = &score
		total += score * cfg.TitleWeight
		weightUsed += cfg.TitleWeight
	}

	if cfg.VinWeight > 0 && bothPresent(a.VIN, b.VIN) {
		// Equal VINs short-circuited above, so reaching here means an
		// active mismatch.
		score := 0.0
		breakdown.Vin = &score
		weightUsed += cfg.VinWeight
	}

	if cfg.ImageHashWeight > 0 {
		score := similarity.BestHashSimilarity(a.ImageHashes, b.ImageHashes)
		breakdown.ImageHash = &score
		total += score * cfg.ImageHashWeight
		weightUsed += cfg.ImageHashWeight
	}

	if cfg.PriceWeight > 0 && (a.Price != nil || b.Price != nil) {
		score := similarity.PriceSimilarityWithTolerance(a.Price, b.Price, cfg.PriceTolerancePercent)
		breakdown.Price = &score
		total += score * cfg.PriceWeight
		weightUsed += cfg.PriceWeight
	}

	if cfg.MileageWeight > 0 && (a.Mileage != nil || b.Mileage != nil) {
		score := similarity.MileageSimilarityWithTolerance(a.Mileage, b.Mileage, cfg.MileageTolerancePercent)
		breakdown.Mileage = &score
		total += score * cfg.MileageWeight
		weightUsed += cfg.MileageWeight
	}

	if cfg.LocationWeight > 0 {
		score := similarity.LocationSimilarity(locationOf(a), locationOf(b), cfg.MaxDistanceKm)
		breakdown.Location = &score
		total += score * cfg.LocationWeight
		weightUsed += cfg.LocationWeight
	}

	composite := 0.0
	if weightUsed > 0 {
		composite = total / weightUsed
	}

	imageGatePassed := true
	if cfg.RequireImageMatch {
		imageGatePassed = breakdown.ImageHash != nil && *breakdown.ImageHash >= cfg.ImageHashSimilarityThreshold
	}

	return Result{
		Reason:          s.fuzzyReason(cfg, breakdown, a, b),
		Confidence:      models.ClassifyConfidence(composite),
		Score:           &composite,
		Breakdown:       breakdown,
		ImageGatePassed: imageGatePassed,
	}
}

// fuzzyReason names which signals carried a weighted match. Images count
// either by clearing the similarity threshold or by any hash pair landing
// within the boolean Hamming cutoff.
func (s *Scorer) fuzzyReason(cfg *models.DeduplicationConfig, breakdown models.ScoreBreakdown, a, b *models.VehicleListing) models.MatchReason {
	titleStrong := breakdown.Title != nil && *breakdown.Title >= cfg.TitleSimilarityThreshold
	imageStrong := breakdown.ImageHash != nil && *breakdown.ImageHash >= cfg.ImageHashSimilarityThreshold
	if !imageStrong && breakdown.ImageHash != nil {
		imageStrong = similarity.AnyHashesSimilar(a.ImageHashes, b.ImageHashes, s.maxHammingDistance)
	}

	switch {
	case titleStrong && imageStrong:
		return models.ReasonCombinedMatch
	case imageStrong:
		return models.ReasonImageMatch
	default:
		return models.ReasonFuzzyMatch
	}
}

func titleSimilarity(method models.TitleMethod, a, b string) float64 {
	switch method {
	case models.TitleMethodLevenshtein:
		return similarity.LevenshteinSimilarity(a, b)
	case models.TitleMethodNGram:
		return similarity.NGramJaccardSimilarity(a, b, similarity.DefaultNGramSize)
	default:
		return similarity.JaroWinklerSimilarity(a, b)
	}
}

func vinsEqual(a, b *string) bool {
	if !bothPresent(a, b) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*a), strings.TrimSpace(*b))
}

func externalIDsEqual(a, b *models.VehicleListing) bool {
	if !bothPresent(a.ExternalID, b.ExternalID) || !bothPresent(a.SourceSite, b.SourceSite) {
		return false
	}
	return *a.ExternalID == *b.ExternalID && strings.EqualFold(*a.SourceSite, *b.SourceSite)
}

func bothPresent(a, b *string) bool {
	return a != nil && *a != "" && b != nil && *b != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func locationOf(l *models.VehicleListing) similarity.LocationInput {
	return similarity.LocationInput{
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		PostalCode: l.PostalCode,
		City:       l.City,
		Province:   l.Province,
	}
}
