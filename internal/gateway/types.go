package gateway

import "github.com/geohealth/gateway/internal/provider"

// Result types returned by gateway operations. Every free-text field is
// a plain string by the time a value leaves this package; nested
// provider shapes are flattened at the boundary.

type Hazard struct {
	Hazard      string `json:"hazard"`
	Description string `json:"description"`
}

type Disease struct {
	Name        string   `json:"name"`
	Cause       string   `json:"cause"`
	Precautions []string `json:"precautions"`
}

type LocationAnalysis struct {
	LocationName string    `json:"locationName"`
	Hazards      []Hazard  `json:"hazards"`
	Diseases     []Disease `json:"diseases"`
	Summary      string    `json:"summary"`
}

// LocationReport pairs a coordinate analysis with an optional
// illustrative render. ImageURL is empty when the image call failed;
// the analysis stands on its own.
type LocationReport struct {
	Analysis LocationAnalysis `json:"analysis"`
	ImageURL string           `json:"imageUrl,omitempty"`
}

type Facility struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	URL  string  `json:"url,omitempty"`
	// DistanceKm and Distance are computed locally from the query
	// point, never provider-supplied.
	DistanceKm float64 `json:"distanceKm,omitempty"`
	Distance   string  `json:"distance,omitempty"`
}

// Facility types the structuring schema allows.
const (
	FacilityHospital = "Hospital"
	FacilityClinic   = "Clinic"
	FacilityPharmacy = "Pharmacy"
)

type Medicine struct {
	Name    string `json:"name"`
	Dosage  string `json:"dosage"`
	Purpose string `json:"purpose"`
}

type PrescriptionAnalysis struct {
	Summary     string     `json:"summary"`
	Medicines   []Medicine `json:"medicines"`
	Precautions []string   `json:"precautions"`
	Videos      []string   `json:"videos"`
}

type Concern struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

type CopingStrategy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type MentalHealthResult struct {
	Summary           string           `json:"summary"`
	PotentialConcerns []Concern        `json:"potentialConcerns"`
	CopingStrategies  []CopingStrategy `json:"copingStrategies"`
	Recommendation    string           `json:"recommendation"`
}

type SymptomAnalysis struct {
	Summary        string    `json:"summary"`
	PossibleCauses []Concern `json:"possibleCauses"`
	SelfCare       []string  `json:"selfCare"`
	Urgency        string    `json:"urgency"`
}

type DiseaseReport struct {
	Name                 string `json:"name"`
	Summary              string `json:"summary"`
	ReportedCases        string `json:"reportedCases"`
	AffectedDemographics string `json:"affectedDemographics"`
	Trend                string `json:"trend"`
}

// Trend values the snapshot schema allows.
const (
	TrendIncreasing = "Increasing"
	TrendStable     = "Stable"
	TrendDecreasing = "Decreasing"
	TrendUnknown    = "Unknown"
)

type CityHealthSnapshot struct {
	CityName       string            `json:"cityName"`
	Country        string            `json:"country"`
	LastUpdated    string            `json:"lastUpdated"`
	OverallSummary string            `json:"overallSummary"`
	Diseases       []DiseaseReport   `json:"diseases"`
	DataDisclaimer string            `json:"dataDisclaimer"`
	Sources        []provider.Source `json:"sources"`
}

type RiskFactor struct {
	Name   string `json:"name"`
	Level  string `json:"level"`
	Advice string `json:"advice"`
}

type HealthForecast struct {
	LocationName    string       `json:"locationName"`
	Summary         string       `json:"summary"`
	Risks           []RiskFactor `json:"risks"`
	Recommendations []string     `json:"recommendations"`
}

type Alert struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Area      string `json:"area"`
	SourceURI string `json:"sourceUri,omitempty"`
}

// BotCommand is the discriminated chat-assistant result. Page is only
// meaningful when Action is "navigate".
type BotCommand struct {
	Action       string `json:"action"`
	Page         string `json:"page,omitempty"`
	ResponseText string `json:"responseText"`
}

const (
	ActionNavigate = "navigate"
	ActionSpeak    = "speak"
)

type GeocodeResult struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}
