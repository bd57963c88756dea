package evaluatecandidatepair

import "vehicle-dedup-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"sourceListingId"},
		Properties: map[string]validation.Property{
			"sourceListingId": {
				Type:        "string",
				Description: "Listing to evaluate against candidates",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"targetListingId": {
				Type:        "string",
				Description: "Specific candidate to compare (optional; candidates are discovered when absent)",
				MaxLength:   intPtr(128),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
