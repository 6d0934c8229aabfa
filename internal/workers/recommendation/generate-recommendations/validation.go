package generaterecommendations

import "tour-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"preferences"},
		Properties: map[string]validation.Property{
			"customerId": {
				Type:        "string",
				Description: "Requesting customer; enables collaborative filtering",
			},
			"preferences": {
				Type:     "object",
				Required: []string{"budget", "duration"},
				Properties: map[string]validation.Property{
					"budget": {
						Type:        "number",
						Description: "Total budget in TND",
						Minimum:     validation.FloatPtr(0),
					},
					"duration": {
						Type:        "number",
						Description: "Trip length in days",
						Minimum:     validation.FloatPtr(0),
					},
					"interests": {
						Type:  []string{"array", "null"},
						Items: &validation.Property{Type: "string"},
					},
					"travelStyle": {
						Type: "string",
					},
					"groupSize": {
						Type:    "integer",
						Minimum: validation.FloatPtr(0),
					},
				},
			},
		},
	}
}
