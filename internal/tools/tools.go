// Package tools exposes the query engine's operations as named tools with
// JSON arguments, shared by the HTTP and stdio transports. Operational
// failures never escape as errors; they come back in each tool's degraded
// response shape so one failing call cannot take down the transport.
package tools

// Tool names dispatchable through Call.
const (
	ToolPostalCodeSearch = "postal_code_search"
	ToolGeocodePostal    = "geocode_postal"
	ToolReverseGeocode   = "reverse_geocode"
	ToolValidatePostal   = "validate_postal"
	ToolPostalStats      = "postal_stats"
	ToolPostalSuggest    = "postal_suggest"
	ToolPostalNearest    = "postal_nearest"
)

// Tool describes one dispatchable operation for discovery endpoints.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema schema `json:"inputSchema"`
}

type schema map[string]interface{}

func styleProperty() schema {
	return schema{
		"type":        "string",
		"description": "Detail level: SHORT, MEDIUM, LONG or FULL",
		"default":     "MEDIUM",
	}
}

// Definitions returns the tool registry in a stable order.
func Definitions() []Tool {
	return []Tool{
		{
			Name:        ToolPostalCodeSearch,
			Description: "Search for a postal code",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"postal_code": schema{
						"type":        "string",
						"description": "US postal code to search for",
					},
					"style": styleProperty(),
				},
				"required": []string{"postal_code"},
			},
		},
		{
			Name:        ToolGeocodePostal,
			Description: "Convert postal code to coordinates",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"postalCode": schema{
						"type":        "string",
						"description": "US postal code to geocode",
					},
					"style": styleProperty(),
				},
				"required": []string{"postalCode"},
			},
		},
		{
			Name:        ToolReverseGeocode,
			Description: "Find postal codes near coordinates",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"latitude": schema{
						"type":        "number",
						"description": "Latitude of the center point",
					},
					"longitude": schema{
						"type":        "number",
						"description": "Longitude of the center point",
					},
					"radius": schema{
						"type":        "number",
						"description": "Search radius in kilometers (0.1 to 100)",
						"default":     5.0,
					},
					"maxResults": schema{
						"type":        "integer",
						"description": "Maximum number of results (1 to 100)",
						"default":     10,
					},
					"style": styleProperty(),
				},
				"required": []string{"latitude", "longitude"},
			},
		},
		{
			Name:        ToolValidatePostal,
			Description: "Validate if postal code exists",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"postalCode": schema{
						"type":        "string",
						"description": "US postal code to validate",
					},
				},
				"required": []string{"postalCode"},
			},
		},
		{
			Name:        ToolPostalStats,
			Description: "Get database statistics and health information",
			InputSchema: schema{
				"type":       "object",
				"properties": schema{},
			},
		},
		{
			Name:        ToolPostalSuggest,
			Description: "Suggest place names for a possibly misspelled query",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"placeName": schema{
						"type":        "string",
						"description": "Place name fragment, typos tolerated",
					},
					"maxResults": schema{
						"type":        "integer",
						"description": "Maximum number of suggestions (1 to 20)",
						"default":     5,
					},
				},
				"required": []string{"placeName"},
			},
		},
		{
			Name:        ToolPostalNearest,
			Description: "Find the nearest postal codes to coordinates",
			InputSchema: schema{
				"type": "object",
				"properties": schema{
					"latitude": schema{
						"type":        "number",
						"description": "Latitude of the query point",
					},
					"longitude": schema{
						"type":        "number",
						"description": "Longitude of the query point",
					},
					"k": schema{
						"type":        "integer",
						"description": "Number of neighbors to return (1 to 10)",
						"default":     1,
					},
					"style": styleProperty(),
				},
				"required": []string{"latitude", "longitude"},
			},
		},
	}
}
