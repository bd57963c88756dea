// internal/listings/reader.go
package listings

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"vehicle-dedup-workers/internal/common/errors"
	"vehicle-dedup-workers/internal/models"
)

// Reader fetches listing snapshots from the Elasticsearch index the
// scraping pipeline writes into. The dedup side only ever reads.
type Reader struct {
	client *elasticsearch.Client
	index  string
}

func NewReader(client *elasticsearch.Client, index string) *Reader {
	return &Reader{client: client, index: index}
}

// GetListing fetches one listing by document id.
func (r *Reader) GetListing(ctx context.Context, listingID string) (*models.VehicleListing, error) {
	req := esapi.GetRequest{
		Index:      r.index,
		DocumentID: listingID,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, errors.NewListingFetchFailedError(listingID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, errors.NewListingNotFoundError(listingID)
	}
	if res.IsError() {
		return nil, errors.NewListingFetchFailedError(listingID, errStatus(res))
	}

	var doc struct {
		Found  bool                  `json:"found"`
		Source models.VehicleListing `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, errors.NewListingFetchFailedError(listingID, err)
	}
	if !doc.Found {
		return nil, errors.NewListingNotFoundError(listingID)
	}

	listing := doc.Source
	if listing.ID == "" {
		listing.ID = listingID
	}
	return &listing, nil
}

// FindCandidates returns listings in the same tenant that share coarse
// attributes with the given listing. This is the blocking step: only
// candidates returned here ever reach pairwise scoring.
func (r *Reader) FindCandidates(ctx context.Context, listing *models.VehicleListing, size int) ([]*models.VehicleListing, error) {
	must := []map[string]interface{}{
		{"term": map[string]interface{}{"tenantId": listing.TenantID}},
	}
	if listing.Make != nil {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"make": *listing.Make},
		})
	}
	if listing.Model != nil {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"model": *listing.Model},
		})
	}
	if listing.Year != nil {
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{"year": map[string]interface{}{
				"gte": *listing.Year - 1,
				"lte": *listing.Year + 1,
			}},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
				"must_not": []map[string]interface{}{
					{"ids": map[string]interface{}{"values": []string{listing.ID}}},
				},
			},
		},
		"size": size,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return nil, errors.NewListingFetchFailedError(listing.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewListingFetchFailedError(listing.ID, errStatus(res))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string                `json:"_id"`
				Source models.VehicleListing `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.NewListingFetchFailedError(listing.ID, err)
	}

	candidates := make([]*models.VehicleListing, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		candidate := hit.Source
		if candidate.ID == "" {
			candidate.ID = hit.ID
		}
		candidates = append(candidates, &candidate)
	}
	return candidates, nil
}

type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return "elasticsearch request failed: " + e.status
}

func errStatus(res *esapi.Response) error {
	return &statusError{status: res.Status()}
}
