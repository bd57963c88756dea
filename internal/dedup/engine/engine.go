// internal/dedup/engine/engine.go
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/common/metrics"
	"vehicle-dedup-workers/internal/dedup/rules"
	"vehicle-dedup-workers/internal/dedup/scoring"
	"vehicle-dedup-workers/internal/models"
)

// MatchStore persists duplicate matches.
type MatchStore interface {
	SaveMatch(ctx context.Context, match *models.DuplicateMatch) error
	LinkReviewItem(ctx context.Context, matchID, reviewItemID string) error
}

// ReviewStore enqueues near matches for human review.
type ReviewStore interface {
	CreateReviewItem(ctx context.Context, item *models.ReviewItem) error
}

// AuditStore appends decision audit entries.
type AuditStore interface {
	SaveAuditEntry(ctx context.Context, entry *models.AuditEntry) error
}

// DecisionEvent is the downstream notification for one evaluated pair.
type DecisionEvent struct {
	TenantID        string               `json:"tenantId"`
	SourceListingID string               `json:"sourceListingId"`
	TargetListingID string               `json:"targetListingId"`
	Decision        models.MatchDecision `json:"decision"`
	Reason          models.MatchReason   `json:"reason"`
	Score           *float64             `json:"score,omitempty"`
	MatchID         string               `json:"matchId,omitempty"`
	ReviewItemID    string               `json:"reviewItemId,omitempty"`
	OccurredAt      time.Time            `json:"occurredAt"`
}

// EventSink publishes decision events. Publishing is best-effort; the
// engine never fails a decision because the sink is down.
type EventSink interface {
	PublishDecision(ctx context.Context, event *DecisionEvent) error
}

// Evaluation is the persisted outcome of one pair evaluation.
type Evaluation struct {
	Decision     models.MatchDecision
	Reason       models.MatchReason
	Confidence   models.MatchConfidence
	Score        *float64
	Breakdown    models.ScoreBreakdown
	Match        *models.DuplicateMatch
	ReviewItem   *models.ReviewItem
	AuditEntryID string
	AppliedRule  *models.DealerDeduplicationRule
}

// Engine turns scorer output into a persisted decision. Every evaluated
// pair yields exactly one audit entry, whatever the outcome.
type Engine struct {
	resolver *rules.Resolver
	scorer   *scoring.Scorer
	matches  MatchStore
	reviews  ReviewStore
	audits   AuditStore
	events   EventSink
	logger   logger.Logger
	now      func() time.Time
}

func NewEngine(resolver *rules.Resolver, scorer *scoring.Scorer, matches MatchStore, reviews ReviewStore, audits AuditStore, events EventSink, log logger.Logger) *Engine {
	return &Engine{
		resolver: resolver,
		scorer:   scorer,
		matches:  matches,
		reviews:  reviews,
		audits:   audits,
		events:   events,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EvaluatePair resolves the effective config, scores the pair and persists
// the resulting decision. Persistence failures propagate; the Zeebe retry
// machinery re-runs the whole evaluation rather than the engine retrying
// internally.
func (e *Engine) EvaluatePair(ctx context.Context, source, target *models.VehicleListing) (*Evaluation, error) {
	resolution, err := e.resolver.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	if resolution.AppliedRule != nil {
		metrics.DealerRuleApplied.WithLabelValues(source.TenantID).Inc()
	}

	scored := e.scorer.Score(resolution.Config, source, target)
	decision := e.decide(resolution.Config, scored)

	eval := &Evaluation{
		Decision:    decision,
		Reason:      scored.Reason,
		Confidence:  scored.Confidence,
		Score:       scored.Score,
		Breakdown:   scored.Breakdown,
		AppliedRule: resolution.AppliedRule,
	}
	if decision == models.DecisionNearMatch {
		eval.Reason = models.ReasonManualReview
	}
	if decision == models.DecisionNewListing {
		eval.Reason = models.ReasonNoMatch
	}

	now := e.now()

	if decision == models.DecisionDuplicate || decision == models.DecisionNearMatch {
		match := &models.DuplicateMatch{
			ID:              uuid.NewString(),
			TenantID:        source.TenantID,
			SourceListingID: source.ID,
			TargetListingID: target.ID,
			OverallScore:    matchScore(scored),
			Confidence:      scored.Confidence,
			Breakdown:       scored.Breakdown,
			DetectedAt:      now,
		}
		if err := e.matches.SaveMatch(ctx, match); err != nil {
			return nil, err
		}
		eval.Match = match
	}

	if decision == models.DecisionNearMatch {
		score := matchScore(scored)
		item := &models.ReviewItem{
			ID:               uuid.NewString(),
			TenantID:         source.TenantID,
			DuplicateMatchID: eval.Match.ID,
			SourceListingID:  source.ID,
			TargetListingID:  target.ID,
			MatchScore:       score,
			Priority:         models.ReviewPriorityForScore(score),
			Status:           models.ReviewStatusPending,
			CreatedAt:        now,
		}
		if err := e.reviews.CreateReviewItem(ctx, item); err != nil {
			return nil, err
		}
		if err := e.matches.LinkReviewItem(ctx, eval.Match.ID, item.ID); err != nil {
			return nil, err
		}
		eval.Match.ReviewItemID = &item.ID
		eval.ReviewItem = item
		metrics.ReviewItemsCreated.WithLabelValues(priorityLabel(item.Priority)).Inc()
	}

	entry := &models.AuditEntry{
		ID:              uuid.NewString(),
		TenantID:        source.TenantID,
		SourceListingID: source.ID,
		TargetListingID: target.ID,
		Decision:        decision,
		Reason:          eval.Reason,
		ConfidenceScore: scored.Score,
		WasAutomatic:    true,
		Breakdown:       scored.Breakdown,
		CreatedAt:       now,
	}
	if err := e.audits.SaveAuditEntry(ctx, entry); err != nil {
		return nil, err
	}
	eval.AuditEntryID = entry.ID

	metrics.PairsEvaluated.WithLabelValues(string(decision), string(eval.Reason)).Inc()
	if scored.Score != nil {
		metrics.CompositeScore.Observe(*scored.Score)
	}

	e.publish(ctx, source, target, eval, now)

	return eval, nil
}

// decide applies thresholds to the scorer's verdict. Short-circuit outcomes
// are already final. A failed image gate caps an automatic duplicate at a
// near match so a human sees it.
func (e *Engine) decide(cfg *models.DeduplicationConfig, scored scoring.Result) models.MatchDecision {
	if scored.ShortCircuit {
		return scored.Decision
	}

	score := *scored.Score
	switch {
	case score >= cfg.OverallMatchThreshold && scored.ImageGatePassed:
		return models.DecisionDuplicate
	case score >= cfg.OverallMatchThreshold:
		return models.DecisionNearMatch
	case score >= cfg.ReviewThreshold:
		return models.DecisionNearMatch
	default:
		return models.DecisionNewListing
	}
}

func (e *Engine) publish(ctx context.Context, source, target *models.VehicleListing, eval *Evaluation, now time.Time) {
	event := &DecisionEvent{
		TenantID:        source.TenantID,
		SourceListingID: source.ID,
		TargetListingID: target.ID,
		Decision:        eval.Decision,
		Reason:          eval.Reason,
		Score:           eval.Score,
		OccurredAt:      now,
	}
	if eval.Match != nil {
		event.MatchID = eval.Match.ID
	}
	if eval.ReviewItem != nil {
		event.ReviewItemID = eval.ReviewItem.ID
	}

	if err := e.events.PublishDecision(ctx, event); err != nil {
		// The decision is already durable; the event stream tolerates gaps.
		e.logger.Warn("failed to publish decision event", map[string]interface{}{
			"sourceListingId": source.ID,
			"targetListingId": target.ID,
			"decision":        string(eval.Decision),
			"error":           err,
		})
	}
}

// matchScore is the score recorded on a match row. Authoritative-key
// duplicates carry no weighted score and record 1.0.
func matchScore(scored scoring.Result) float64 {
	if scored.Score != nil {
		return *scored.Score
	}
	return 1.0
}

func priorityLabel(p int) string {
	return [6]string{"0", "1", "2", "3", "4", "5"}[p]
}
