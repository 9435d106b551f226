package gateway

import "github.com/google/generative-ai-go/genai"

// Schema contracts, one per analysis kind. These are handed to the
// provider's structured-output mode to constrain generation. They are
// package-wide constants in spirit: defined once, never mutated.

var locationAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"locationName": {Type: genai.TypeString},
		"hazards": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"hazard":      {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"hazard", "description"},
			},
		},
		"diseases": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":  {Type: genai.TypeString},
					"cause": {Type: genai.TypeString},
					"precautions": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"name", "cause", "precautions"},
			},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"locationName", "hazards", "diseases", "summary"},
}

var geocodeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"lat":               {Type: genai.TypeNumber},
		"lng":               {Type: genai.TypeNumber},
		"foundLocationName": {Type: genai.TypeString},
	},
	Required: []string{"lat", "lng", "foundLocationName"},
}

var facilitiesSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {Type: genai.TypeString},
			"type": {
				Type: genai.TypeString,
				Enum: []string{FacilityHospital, FacilityClinic, FacilityPharmacy},
			},
			"lat": {Type: genai.TypeNumber},
			"lng": {Type: genai.TypeNumber},
			"url": {Type: genai.TypeString},
		},
		Required: []string{"name", "type", "lat", "lng"},
	},
}

var prescriptionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"medicines": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":    {Type: genai.TypeString},
					"dosage":  {Type: genai.TypeString},
					"purpose": {Type: genai.TypeString},
				},
				Required: []string{"name"},
			},
		},
		"precautions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"videos": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"summary", "medicines", "precautions"},
}

var mentalHealthSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"potentialConcerns": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"name", "explanation"},
			},
		},
		"copingStrategies": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"title", "description"},
			},
		},
		"recommendation": {Type: genai.TypeString},
	},
	Required: []string{"summary", "potentialConcerns", "copingStrategies", "recommendation"},
}

var symptomSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"possibleCauses": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        {Type: genai.TypeString},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"name", "explanation"},
			},
		},
		"selfCare": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"urgency": {Type: genai.TypeString},
	},
	Required: []string{"summary", "possibleCauses", "selfCare", "urgency"},
}

var citySnapshotSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cityName":       {Type: genai.TypeString},
		"country":        {Type: genai.TypeString},
		"lastUpdated":    {Type: genai.TypeString},
		"overallSummary": {Type: genai.TypeString},
		"diseases": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":                 {Type: genai.TypeString},
					"summary":              {Type: genai.TypeString},
					"reportedCases":        {Type: genai.TypeString},
					"affectedDemographics": {Type: genai.TypeString},
					"trend": {
						Type: genai.TypeString,
						Enum: []string{TrendIncreasing, TrendStable, TrendDecreasing, TrendUnknown},
					},
				},
				Required: []string{"name", "summary", "reportedCases", "affectedDemographics", "trend"},
			},
		},
		"dataDisclaimer": {Type: genai.TypeString},
		"sources": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"uri":   {Type: genai.TypeString},
					"title": {Type: genai.TypeString},
				},
				Required: []string{"uri", "title"},
			},
		},
	},
	Required: []string{"cityName", "country", "lastUpdated", "overallSummary", "diseases", "dataDisclaimer", "sources"},
}

var forecastSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"locationName": {Type: genai.TypeString},
		"summary":      {Type: genai.TypeString},
		"risks": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":   {Type: genai.TypeString},
					"level":  {Type: genai.TypeString},
					"advice": {Type: genai.TypeString},
				},
				Required: []string{"name", "level"},
			},
		},
		"recommendations": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"locationName", "summary", "risks", "recommendations"},
}

var alertsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":     {Type: genai.TypeString},
			"summary":   {Type: genai.TypeString},
			"category":  {Type: genai.TypeString},
			"severity":  {Type: genai.TypeString},
			"area":      {Type: genai.TypeString},
			"sourceUri": {Type: genai.TypeString},
		},
		Required: []string{"title", "summary", "category", "severity"},
	},
}

var botCommandSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action": {
			Type: genai.TypeString,
			Enum: []string{ActionNavigate, ActionSpeak},
		},
		"page":         {Type: genai.TypeString},
		"responseText": {Type: genai.TypeString},
	},
	Required: []string{"action", "responseText"},
}
