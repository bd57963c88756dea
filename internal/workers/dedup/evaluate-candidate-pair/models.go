// internal/workers/dedup/evaluate-candidate-pair/models.go
package evaluatecandidatepair

// Input arrives from the process instance. When targetListingId is empty
// the worker discovers candidates itself from the listing index.
type Input struct {
	SourceListingID string `json:"sourceListingId"`
	TargetListingID string `json:"targetListingId,omitempty"`
}

type PairResult struct {
	TargetListingID string   `json:"targetListingId"`
	Decision        string   `json:"decision"`
	Reason          string   `json:"reason"`
	Confidence      string   `json:"confidence"`
	Score           *float64 `json:"score,omitempty"`
	MatchID         string   `json:"matchId,omitempty"`
	ReviewItemID    string   `json:"reviewItemId,omitempty"`
}

type Output struct {
	SourceListingID string       `json:"sourceListingId"`
	PairsEvaluated  int          `json:"pairsEvaluated"`
	DuplicatesFound int          `json:"duplicatesFound"`
	ReviewsQueued   int          `json:"reviewsQueued"`
	Results         []PairResult `json:"results"`
}
