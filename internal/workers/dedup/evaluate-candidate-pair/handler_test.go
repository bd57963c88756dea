// internal/workers/dedup/evaluate-candidate-pair/handler_test.go
package evaluatecandidatepair

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/common/logger"
	"vehicle-dedup-workers/internal/common/validation"
	"vehicle-dedup-workers/internal/dedup/engine"
	"vehicle-dedup-workers/internal/dedup/rules"
	"vehicle-dedup-workers/internal/dedup/scoring"
	"vehicle-dedup-workers/internal/models"
)

type fakeConfigStore struct{}

func (fakeConfigStore) GetActiveConfig(ctx context.Context, tenantID string) (*models.DeduplicationConfig, error) {
	return models.DefaultDeduplicationConfig(tenantID), nil
}

type fakeRuleStore struct{}

func (fakeRuleStore) ListActiveRules(ctx context.Context, tenantID, dealerID string) ([]*models.DealerDeduplicationRule, error) {
	return nil, nil
}

func (fakeRuleStore) RecordRuleApplied(ctx context.Context, ruleID string) error { return nil }

type fakeMatchStore struct{ saved int }

func (f *fakeMatchStore) SaveMatch(ctx context.Context, match *models.DuplicateMatch) error {
	f.saved++
	return nil
}

func (f *fakeMatchStore) LinkReviewItem(ctx context.Context, matchID, reviewItemID string) error {
	return nil
}

type fakeReviewStore struct{ created int }

func (f *fakeReviewStore) CreateReviewItem(ctx context.Context, item *models.ReviewItem) error {
	f.created++
	return nil
}

type fakeAuditStore struct{ entries int }

func (f *fakeAuditStore) SaveAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	f.entries++
	return nil
}

type fakeEventSink struct{}

func (fakeEventSink) PublishDecision(ctx context.Context, event *engine.DecisionEvent) error {
	return nil
}

type fakeListingSource struct {
	listings   map[string]*models.VehicleListing
	candidates []*models.VehicleListing
}

func (f *fakeListingSource) GetListing(ctx context.Context, id string) (*models.VehicleListing, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, errors.NewListingNotFoundError(id)
	}
	return listing, nil
}

func (f *fakeListingSource) FindCandidates(ctx context.Context, source *models.VehicleListing, limit int) ([]*models.VehicleListing, error) {
	return f.candidates, nil
}

func sptr(s string) *string { return &s }

func fptr(v float64) *float64 { return &v }

func testListing(id, vin string) *models.VehicleListing {
	l := &models.VehicleListing{
		ID:       id,
		TenantID: "tenant-1",
		DealerID: "dealer-1",
		Title:    sptr("2020 Honda Civic LX"),
		Price:    fptr(22000),
		Mileage:  fptr(30000),
	}
	if vin != "" {
		l.VIN = sptr(vin)
	}
	return l
}

func newTestHandler(source *fakeListingSource) (*Handler, *fakeMatchStore, *fakeAuditStore) {
	log := logger.NewNoOpLogger()
	matches := &fakeMatchStore{}
	audits := &fakeAuditStore{}
	resolver := rules.NewResolver(fakeConfigStore{}, fakeRuleStore{}, log)
	eng := engine.NewEngine(resolver, scoring.NewScorer(), matches, &fakeReviewStore{}, audits, fakeEventSink{}, log)
	h := NewHandler(LoadConfig(), eng, source, nil, log)
	return h, matches, audits
}

func TestExecute_ExplicitTargetPair(t *testing.T) {
	source := &fakeListingSource{listings: map[string]*models.VehicleListing{
		"listing-a": testListing("listing-a", "2HGFC2F59LH000001"),
		"listing-b": testListing("listing-b", "2HGFC2F59LH000001"),
	}}
	h, matches, audits := newTestHandler(source)

	output, err := h.Execute(context.Background(), &Input{
		SourceListingID: "listing-a",
		TargetListingID: "listing-b",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, output.PairsEvaluated)
	assert.Equal(t, 1, output.DuplicatesFound)
	assert.Equal(t, 0, output.ReviewsQueued)
	require.Len(t, output.Results, 1)
	assert.Equal(t, string(models.DecisionDuplicate), output.Results[0].Decision)
	assert.Equal(t, string(models.ReasonVinMatch), output.Results[0].Reason)
	assert.NotEmpty(t, output.Results[0].MatchID)
	assert.Equal(t, 1, matches.saved)
	assert.Equal(t, 1, audits.entries)
}

func TestExecute_DiscoversCandidates(t *testing.T) {
	source := &fakeListingSource{
		listings: map[string]*models.VehicleListing{
			"listing-a": testListing("listing-a", "2HGFC2F59LH000001"),
		},
		candidates: []*models.VehicleListing{
			testListing("listing-b", "2HGFC2F59LH000001"),
			testListing("listing-c", "3FAHP0HA0AR000002"),
		},
	}
	h, _, audits := newTestHandler(source)

	output, err := h.Execute(context.Background(), &Input{SourceListingID: "listing-a"})
	require.NoError(t, err)

	assert.Equal(t, 2, output.PairsEvaluated)
	assert.Equal(t, 1, output.DuplicatesFound)
	assert.Equal(t, 2, audits.entries)
}

func TestExecute_UnknownSourceListing(t *testing.T) {
	h, _, _ := newTestHandler(&fakeListingSource{listings: map[string]*models.VehicleListing{}})

	_, err := h.Execute(context.Background(), &Input{SourceListingID: "listing-missing"})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, errors.AsStandardError(err, &stdErr))
	assert.Equal(t, errors.ErrCodeListingNotFound, stdErr.Code)
}

func TestInputSchema(t *testing.T) {
	tests := []struct {
		name      string
		variables map[string]interface{}
		wantValid bool
	}{
		{
			name:      "source only",
			variables: map[string]interface{}{"sourceListingId": "listing-a"},
			wantValid: true,
		},
		{
			name: "source and target",
			variables: map[string]interface{}{
				"sourceListingId": "listing-a",
				"targetListingId": "listing-b",
			},
			wantValid: true,
		},
		{
			name:      "missing source",
			variables: map[string]interface{}{"targetListingId": "listing-b"},
			wantValid: false,
		},
		{
			name:      "empty source",
			variables: map[string]interface{}{"sourceListingId": ""},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validation.ValidateInput(tt.variables, GetInputSchema())
			assert.Equal(t, tt.wantValid, result.Valid)
		})
	}
}
