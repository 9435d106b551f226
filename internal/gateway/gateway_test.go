package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/provider"
)

// fakeAI scripts provider responses and counts calls so tests can
// assert how many round trips an operation really made.
type fakeAI struct {
	mu sync.Mutex

	jsonResponses []string
	jsonErr       error
	jsonCalls     int
	lastJSON      provider.JSONRequest

	grounded      provider.GroundedResult
	groundedErr   error
	groundedCalls int

	image      provider.Illustration
	imageErr   error
	imageCalls int
}

func (f *fakeAI) GenerateJSON(_ context.Context, req provider.JSONRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonCalls++
	f.lastJSON = req
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	if len(f.jsonResponses) == 0 {
		return "{}", nil
	}
	resp := f.jsonResponses[0]
	f.jsonResponses = f.jsonResponses[1:]
	return resp, nil
}

func (f *fakeAI) GenerateGrounded(_ context.Context, _ provider.GroundedRequest) (provider.GroundedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groundedCalls++
	return f.grounded, f.groundedErr
}

func (f *fakeAI) GenerateImage(_ context.Context, _, _ string) (provider.Illustration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	return f.image, f.imageErr
}

func newTestGateway(ai *fakeAI) *Gateway {
	return New(ai, cache.NewMemory(), Options{})
}

func TestAnalyzeLocation_CacheHitBypassesProvider(t *testing.T) {
	ai := &fakeAI{
		jsonResponses: []string{
			`{"locationName":"Indiranagar","hazards":[],"diseases":[],"summary":"ok"}`,
			`{"locationName":"should not be reached","hazards":[],"diseases":[],"summary":""}`,
		},
		image: provider.Illustration{MIMEType: "image/png", Data: []byte{1, 2, 3}},
	}
	gw := newTestGateway(ai)
	ctx := context.Background()

	first, hit, err := gw.AnalyzeLocation(ctx, 12.9716, 77.5946, "en", "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Indiranagar", first.Analysis.LocationName)
	assert.NotEmpty(t, first.ImageURL)

	// Same rounded coordinates within the TTL: no further provider calls.
	second, hit, err := gw.AnalyzeLocation(ctx, 12.97161, 77.59459, "en", "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ai.jsonCalls)
	assert.Equal(t, 1, ai.imageCalls)
}

func TestAnalyzeLocation_ImageFailureDegrades(t *testing.T) {
	ai := &fakeAI{
		jsonResponses: []string{`{"locationName":"Somewhere","hazards":[],"diseases":[],"summary":"ok"}`},
		imageErr:      errors.New("image model unavailable"),
	}
	gw := newTestGateway(ai)

	report, _, err := gw.AnalyzeLocation(context.Background(), 1, 2, "en", "")

	require.NoError(t, err)
	assert.Equal(t, "Somewhere", report.Analysis.LocationName)
	assert.Empty(t, report.ImageURL)
}

func TestAnalyzeLocation_AnalysisFailureIsFatal(t *testing.T) {
	ai := &fakeAI{
		jsonErr: errors.New("invalid request"),
		image:   provider.Illustration{Data: []byte{1}},
	}
	gw := newTestGateway(ai)

	_, _, err := gw.AnalyzeLocation(context.Background(), 1, 2, "en", "")

	require.Error(t, err)
	assert.Equal(t, 1, ai.jsonCalls)
}

func TestAnalyzeImage_MalformedResponseYieldsDefaults(t *testing.T) {
	ai := &fakeAI{jsonResponses: []string{"this is not JSON {"}}
	gw := newTestGateway(ai)

	result, err := gw.AnalyzeImage(context.Background(), []byte{0xFF}, "image/jpeg", "en")

	require.NoError(t, err)
	assert.Equal(t, "Scanned Area", result.LocationName)
	assert.NotNil(t, result.Hazards)
	assert.Empty(t, result.Hazards)
	assert.NotNil(t, result.Diseases)
	assert.NotEmpty(t, result.Summary)
}

func TestAnalyzeImage_NestedObjectsInListItemsAreFlattened(t *testing.T) {
	// A nested object in one hazard description must not collapse the
	// whole analysis to defaults; the valid fields survive.
	ai := &fakeAI{jsonResponses: []string{`{
		"locationName": "Riverbank",
		"hazards": [
			{"hazard": "Flooding", "description": {"description": "Seasonal river overflow"}},
			{"hazard": {"lat": 12.9, "lng": 77.5}, "description": "Landslide-prone slope"}
		],
		"diseases": [
			{"name": {"name": "Dengue"}, "cause": "Mosquitoes", "precautions": ["Use repellent", {"label": "Drain stagnant water"}]}
		],
		"summary": "Wet season risks"
	}`}}
	gw := newTestGateway(ai)

	result, err := gw.AnalyzeImage(context.Background(), []byte{1}, "image/jpeg", "en")

	require.NoError(t, err)
	assert.Equal(t, "Riverbank", result.LocationName)
	assert.Equal(t, "Wet season risks", result.Summary)

	require.Len(t, result.Hazards, 2)
	assert.Equal(t, "Flooding", result.Hazards[0].Hazard)
	assert.Equal(t, "Seasonal river overflow", result.Hazards[0].Description)
	// A coordinate pair is not a hazard label.
	assert.Equal(t, "Environmental hazard", result.Hazards[1].Hazard)
	assert.Equal(t, "Landslide-prone slope", result.Hazards[1].Description)

	require.Len(t, result.Diseases, 1)
	assert.Equal(t, "Dengue", result.Diseases[0].Name)
	assert.Equal(t, []string{"Use repellent", "Drain stagnant water"}, result.Diseases[0].Precautions)
}

func TestFindFacilities_EndToEnd(t *testing.T) {
	ai := &fakeAI{
		grounded: provider.GroundedResult{
			Text:    "Manipal Hospital at 12.958,77.648. Apollo Pharmacy at 12.970,77.640.",
			Sources: []provider.Source{{URI: "https://maps.example/1"}},
		},
		// Fenced body, one coordinate-shaped name, one out-of-enum
		// type, one row without coordinates.
		jsonResponses: []string{"```json\n" + `[
			{"name":"Manipal Hospital","type":"Hospital","lat":12.958,"lng":77.648},
			{"name":{"lat":12.97,"lng":77.64},"type":"Pharmacy","lat":12.970,"lng":77.640},
			{"name":"Vet Clinic","type":"Veterinary","lat":12.96,"lng":77.65},
			{"name":"Ghost Clinic","type":"Clinic","lat":0,"lng":0}
		]` + "\n```"},
	}
	gw := newTestGateway(ai)

	facilities, hit, err := gw.FindFacilities(context.Background(), 12.9716, 77.5946)

	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, facilities, 2)
	for _, f := range facilities {
		assert.Contains(t, []string{FacilityHospital, FacilityClinic, FacilityPharmacy}, f.Type)
		assert.NotEmpty(t, f.Name)
		assert.NotZero(t, f.Lat)
		assert.NotZero(t, f.Lng)
		assert.Zero(t, f.DistanceKm, "distance is attached later, not by the provider")
	}
	assert.Equal(t, "Medical Center", facilities[1].Name)

	sorted := SortByDistance(12.9716, 77.5946, facilities)
	for i := 1; i < len(sorted); i++ {
		assert.GreaterOrEqual(t, sorted[i].DistanceKm, sorted[i-1].DistanceKm)
	}
	assert.NotEmpty(t, sorted[0].Distance)

	// Cached on the second lookup.
	_, hit, err = gw.FindFacilities(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, ai.groundedCalls)
	assert.Equal(t, 1, ai.jsonCalls)
}

func TestGetLiveAlerts_ForceBypassesCacheRead(t *testing.T) {
	ai := &fakeAI{
		grounded:      provider.GroundedResult{Text: "WHO reports dengue surge."},
		jsonResponses: []string{alertsBody, alertsBody},
	}
	gw := newTestGateway(ai)
	ctx := context.Background()

	_, hit, err := gw.GetLiveAlerts(ctx, false)
	require.NoError(t, err)
	assert.False(t, hit)

	// force re-fetches even though the entry is fresh.
	_, hit, err = gw.GetLiveAlerts(ctx, true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, ai.groundedCalls)

	// A plain read now hits the re-stored entry.
	alerts, hit, err := gw.GetLiveAlerts(ctx, false)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, ai.groundedCalls)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Dengue surge", alerts[0].Title)
}

const alertsBody = `[{"title":"Dengue surge","summary":"Cases rising","category":"Outbreak","severity":"High","area":"South Asia"}]`

func TestGetCitySnapshot_SanitizesCityAndFallsBackToSources(t *testing.T) {
	ai := &fakeAI{
		grounded: provider.GroundedResult{
			Text:    "Flu season peaking.",
			Sources: []provider.Source{{URI: "https://health.example/report"}},
		},
		// cityName arrives as a nested object and sources are dropped.
		jsonResponses: []string{`{"cityName":{"lat":12.9,"lng":77.5},"country":"","lastUpdated":"today",
			"overallSummary":"Flu peaking","diseases":[],"dataDisclaimer":"AI-compiled","sources":[]}`},
	}
	gw := newTestGateway(ai)

	snapshot, _, err := gw.GetCitySnapshot(context.Background(), "Bengaluru", "India", "en")

	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", snapshot.CityName)
	assert.Equal(t, "India", snapshot.Country)
	require.Len(t, snapshot.Sources, 1)
	assert.Equal(t, "https://health.example/report", snapshot.Sources[0].URI)
}

func TestBotCommand(t *testing.T) {
	t.Run("navigate keeps page", func(t *testing.T) {
		ai := &fakeAI{jsonResponses: []string{
			"```json\n" + `{"action":"navigate","page":"checkup","responseText":"Taking you to checkup."}` + "\n```",
		}}
		gw := newTestGateway(ai)

		cmd, err := gw.BotCommand(context.Background(), "open the checkup page", "en", []string{"home", "checkup"})

		require.NoError(t, err)
		assert.Equal(t, ActionNavigate, cmd.Action)
		assert.Equal(t, "checkup", cmd.Page)
		assert.NotEmpty(t, cmd.ResponseText)
	})

	t.Run("speak clears page", func(t *testing.T) {
		ai := &fakeAI{jsonResponses: []string{`{"action":"speak","page":"home","responseText":"Hello!"}`}}
		gw := newTestGateway(ai)

		cmd, err := gw.BotCommand(context.Background(), "hi", "en", []string{"home"})

		require.NoError(t, err)
		assert.Equal(t, ActionSpeak, cmd.Action)
		assert.Empty(t, cmd.Page)
	})

	t.Run("malformed response defaults to speak", func(t *testing.T) {
		ai := &fakeAI{jsonResponses: []string{"garbage"}}
		gw := newTestGateway(ai)

		cmd, err := gw.BotCommand(context.Background(), "hi", "en", nil)

		require.NoError(t, err)
		assert.Equal(t, ActionSpeak, cmd.Action)
		assert.NotEmpty(t, cmd.ResponseText)
	})
}

func TestGeocode_NameFallsBackToQuery(t *testing.T) {
	ai := &fakeAI{jsonResponses: []string{
		`{"lat":12.9716,"lng":77.5946,"foundLocationName":{"lat":12.9716,"lng":77.5946}}`,
	}}
	gw := newTestGateway(ai)

	result, _, err := gw.Geocode(context.Background(), "bengaluru")

	require.NoError(t, err)
	assert.Equal(t, 12.9716, result.Lat)
	assert.Equal(t, 77.5946, result.Lng)
	assert.Equal(t, "bengaluru", result.Name)
}

func TestAnalyzePrescription_DefaultsArrays(t *testing.T) {
	ai := &fakeAI{jsonResponses: []string{`{"summary":"Take with food"}`}}
	gw := newTestGateway(ai)

	result, err := gw.AnalyzePrescription(context.Background(), []byte{1}, "image/jpeg", "en")

	require.NoError(t, err)
	assert.Equal(t, "Take with food", result.Summary)
	assert.NotNil(t, result.Medicines)
	assert.NotNil(t, result.Precautions)
	assert.NotNil(t, result.Videos)
}

func TestAnalyzeMentalHealth_UsesReasoningModel(t *testing.T) {
	ai := &fakeAI{jsonResponses: []string{
		`{"summary":"ok","potentialConcerns":[],"copingStrategies":[],"recommendation":"rest"}`,
	}}
	gw := New(ai, cache.NewMemory(), Options{Models: Models{Fast: "fast-model", Reasoning: "deep-model"}})

	result, err := gw.AnalyzeMentalHealth(context.Background(), map[string]string{"mood": "tired"}, "en")

	require.NoError(t, err)
	assert.Equal(t, "rest", result.Recommendation)
	assert.Equal(t, "deep-model", ai.lastJSON.Model)
}

func TestGetHealthForecast_Cached(t *testing.T) {
	ai := &fakeAI{jsonResponses: []string{
		`{"locationName":"Indiranagar","summary":"pollen high","risks":[],"recommendations":["mask up"]}`,
	}}
	gw := newTestGateway(ai)
	ctx := context.Background()

	first, hit, err := gw.GetHealthForecast(ctx, 12.9716, 77.5946, "en")
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := gw.GetHealthForecast(ctx, 12.9716, 77.5946, "en")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ai.jsonCalls)
}
