// internal/models/listing.go
package models

// VehicleListing is the read-only snapshot of a scraped listing as the
// deduplication pipeline sees it. Listings are produced and indexed by the
// scraping pipeline; this core never mutates them. Optional fields are
// pointers so that "absent" stays distinguishable from zero.
type VehicleListing struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenantId"`
	DealerID    string   `json:"dealerId"`
	VIN         *string  `json:"vin,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Mileage     *float64 `json:"mileage,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Make        *string  `json:"make,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	PostalCode  *string  `json:"postalCode,omitempty"`
	City        *string  `json:"city,omitempty"`
	Province    *string  `json:"province,omitempty"`
	ImageHashes []string `json:"imageHashes,omitempty"`
	ExternalID  *string  `json:"externalId,omitempty"`
	SourceSite  *string  `json:"sourceSite,omitempty"`
}
