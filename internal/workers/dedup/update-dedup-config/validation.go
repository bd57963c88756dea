package updatededupconfig

import "vehicle-dedup-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"tenantId"},
		Properties: map[string]validation.Property{
			"tenantId": {
				Type:        "string",
				Description: "Tenant whose configuration changes",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"config": {
				Type:        "object",
				Description: "Replacement tenant default config",
			},
			"rule": {
				Type:        "object",
				Description: "Dealer rule to create or update",
				Properties: map[string]validation.Property{
					"dealerId": {Type: "string", MinLength: intPtr(1)},
					"name":     {Type: "string", MinLength: intPtr(1)},
					"priority": {Type: "integer"},
				},
				Required: []string{"dealerId", "name"},
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
