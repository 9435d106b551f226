package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/provider"
	"github.com/geohealth/gateway/internal/retry"
	"github.com/geohealth/gateway/internal/sanitize"
)

// groundedJSON runs the two-phase retrieve-then-structure pattern: a
// search-grounded call for current facts, then a structuring call that
// reshapes the grounded free text into schema-constrained JSON. The
// second call strictly depends on the first's output.
func (g *Gateway) groundedJSON(ctx context.Context, retrievePrompt string, bias *provider.LatLng, structureInstruction string, schema *genai.Schema) (string, []provider.Source, error) {
	grounded, err := retry.Do(ctx, func() (provider.GroundedResult, error) {
		return g.ai.GenerateGrounded(ctx, provider.GroundedRequest{
			Model:  g.models.Grounded,
			Prompt: retrievePrompt,
			Bias:   bias,
		})
	})
	if err != nil {
		return "", nil, fmt.Errorf("grounded retrieval: %w", err)
	}

	sources, _ := json.Marshal(grounded.Sources)
	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: fmt.Sprintf("%s\nSource text: %q\nSource references: %s",
				structureInstruction, grounded.Text, sources),
			Schema: schema,
		})
	})
	if err != nil {
		return "", nil, fmt.Errorf("grounded structuring: %w", err)
	}
	return raw, grounded.Sources, nil
}

// GetLiveAlerts returns current global public health alerts. force
// bypasses the cache read (a fresh result still gets stored). The bool
// reports whether the cache served the result.
func (g *Gateway) GetLiveAlerts(ctx context.Context, force bool) ([]Alert, bool, error) {
	key := cache.Fingerprint("alerts_global", alertsSchemaVersion)

	if !force {
		var cached []Alert
		if g.fromCache(ctx, key, &cached) {
			return cached, true, nil
		}
	}

	raw, _, err := g.groundedJSON(ctx,
		"Find the 8 most significant current global public health alerts (outbreaks, "+
			"environmental emergencies, advisories). Give title, affected area, severity and a short summary for each.",
		nil,
		"Structure the health alerts from the source text into a JSON array.",
		alertsSchema)
	if err != nil {
		return nil, false, fmt.Errorf("live alerts: %w", err)
	}

	alerts := decodeAlerts(raw)
	g.toCache(ctx, key, alerts, g.ttl.Alerts)
	return alerts, false, nil
}

// GetLocalAlerts returns current public health alerts near a coordinate
// pair. The bool reports whether the cache served the result.
func (g *Gateway) GetLocalAlerts(ctx context.Context, lat, lng float64, force bool) ([]Alert, bool, error) {
	key := cache.Fingerprint("alerts_local", alertsSchemaVersion,
		cache.Coord(lat), cache.Coord(lng))

	if !force {
		var cached []Alert
		if g.fromCache(ctx, key, &cached) {
			return cached, true, nil
		}
	}

	raw, _, err := g.groundedJSON(ctx,
		fmt.Sprintf("Find current local public health alerts for the area around GPS %.4f, %.4f. "+
			"Give title, affected area, severity and a short summary for each.", lat, lng),
		&provider.LatLng{Lat: lat, Lng: lng},
		"Structure the health alerts from the source text into a JSON array.",
		alertsSchema)
	if err != nil {
		return nil, false, fmt.Errorf("local alerts: %w", err)
	}

	alerts := decodeAlerts(raw)
	g.toCache(ctx, key, alerts, g.ttl.Alerts)
	return alerts, false, nil
}

func decodeAlerts(raw string) []Alert {
	var alerts []Alert
	if !sanitize.Decode(raw, &alerts) {
		log.Printf("gateway: malformed alerts response, returning empty list")
	}
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Title == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// GetCitySnapshot returns a grounded public health snapshot for a city.
// The bool reports whether the cache served the result.
func (g *Gateway) GetCitySnapshot(ctx context.Context, city, country, language string) (CityHealthSnapshot, bool, error) {
	key := cache.Fingerprint("snapshot", snapshotSchemaVersion,
		normalizeQuery(city), normalizeQuery(country), language)

	var cached CityHealthSnapshot
	if g.fromCache(ctx, key, &cached) {
		return cached, true, nil
	}

	raw, sources, err := g.groundedJSON(ctx,
		fmt.Sprintf("Compile a current public health snapshot for %s, %s: active disease activity, "+
			"reported case levels, affected demographics and trends.", city, country),
		nil,
		fmt.Sprintf("Structure the source text into a city health snapshot JSON object. "+
			"Ensure cityName is %q. Write the text fields in %s.", city, languageName(language)),
		citySnapshotSchema)
	if err != nil {
		return CityHealthSnapshot{}, false, fmt.Errorf("city snapshot: %w", err)
	}

	var wire struct {
		CityName       any               `json:"cityName"`
		Country        string            `json:"country"`
		LastUpdated    string            `json:"lastUpdated"`
		OverallSummary string            `json:"overallSummary"`
		Diseases       []DiseaseReport   `json:"diseases"`
		DataDisclaimer string            `json:"dataDisclaimer"`
		Sources        []provider.Source `json:"sources"`
	}
	if !sanitize.Decode(raw, &wire) {
		log.Printf("gateway: malformed city snapshot response, returning defaults")
	}

	snapshot := CityHealthSnapshot{
		CityName:       sanitize.DisplayString(wire.CityName, city),
		Country:        wire.Country,
		LastUpdated:    wire.LastUpdated,
		OverallSummary: wire.OverallSummary,
		Diseases:       wire.Diseases,
		DataDisclaimer: wire.DataDisclaimer,
		Sources:        wire.Sources,
	}
	if snapshot.Country == "" {
		snapshot.Country = country
	}
	if snapshot.Diseases == nil {
		snapshot.Diseases = []DiseaseReport{}
	}
	// The structuring call sometimes drops the sources it was handed;
	// fall back to the retrieval call's citations.
	if len(snapshot.Sources) == 0 {
		snapshot.Sources = sources
	}
	if snapshot.Sources == nil {
		snapshot.Sources = []provider.Source{}
	}

	g.toCache(ctx, key, snapshot, g.ttl.Snapshot)
	return snapshot, false, nil
}
