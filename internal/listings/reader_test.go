// internal/listings/reader_test.go
package listings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

func newTestReader(t *testing.T, handler http.HandlerFunc) *Reader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)
	return NewReader(client, "vehicle-listings")
}

func TestGetListing(t *testing.T) {
	reader := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vehicle-listings/_doc/listing-a", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"found": true,
			"_source": map[string]interface{}{
				"tenantId": "tenant-1",
				"dealerId": "dealer-1",
				"title":    "2019 Toyota Camry LE",
				"price":    25000.0,
			},
		})
	})

	listing, err := reader.GetListing(context.Background(), "listing-a")
	require.NoError(t, err)

	// Document id backfills the listing id when the source omits it.
	assert.Equal(t, "listing-a", listing.ID)
	assert.Equal(t, "tenant-1", listing.TenantID)
	require.NotNil(t, listing.Price)
	assert.Equal(t, 25000.0, *listing.Price)
}

func TestGetListing_NotFound(t *testing.T) {
	reader := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"found": false})
	})

	_, err := reader.GetListing(context.Background(), "listing-missing")
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, errors.AsStandardError(err, &stdErr))
	assert.Equal(t, errors.ErrCodeListingNotFound, stdErr.Code)
}

func TestFindCandidates(t *testing.T) {
	year := 2019
	carMake := "Toyota"
	model := "Camry"
	source := &models.VehicleListing{
		ID:       "listing-a",
		TenantID: "tenant-1",
		Year:     &year,
		Make:     &carMake,
		Model:    &model,
	}

	reader := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vehicle-listings/_search", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var query map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &query))

		// The blocking query excludes the source listing itself.
		encoded := string(body)
		assert.Contains(t, encoded, "listing-a")
		assert.Contains(t, encoded, "tenant-1")

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": []map[string]interface{}{
					{
						"_id": "listing-b",
						"_source": map[string]interface{}{
							"tenantId": "tenant-1",
							"title":    "2019 Toyota Camry SE",
						},
					},
				},
			},
		})
	})

	candidates, err := reader.FindCandidates(context.Background(), source, 25)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "listing-b", candidates[0].ID)
	assert.Equal(t, "tenant-1", candidates[0].TenantID)
}

func TestFindCandidates_ServerError(t *testing.T) {
	reader := newTestReader(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "shard failure"})
	})

	_, err := reader.FindCandidates(context.Background(), &models.VehicleListing{
		ID:       "listing-a",
		TenantID: "tenant-1",
	}, 25)
	require.Error(t, err)
}
