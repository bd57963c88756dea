package resolvereviewitem

import "vehicle-dedup-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"reviewItemId", "action", "reviewedBy"},
		Properties: map[string]validation.Property{
			"reviewItemId": {
				Type:        "string",
				Description: "Review item to resolve",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(128),
			},
			"action": {
				Type:        "string",
				Description: "Reviewer verdict",
				Enum:        []string{ActionConfirmDuplicate, ActionConfirmNotDuplicate, ActionSkip},
			},
			"reviewedBy": {
				Type:        "string",
				Description: "Reviewer identity",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(255),
			},
			"notes": {
				Type:        "string",
				Description: "Free-form reviewer notes",
				MaxLength:   intPtr(2000),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
