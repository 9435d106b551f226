package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/provider"
	"github.com/geohealth/gateway/internal/retry"
	"github.com/geohealth/gateway/internal/sanitize"
)

// locationWire is the decode target for location analysis responses.
// Every free-text field is `any` because structured output occasionally
// nests an object where a string was asked for; decoding a nested item
// strictly would throw away the rest of an otherwise valid response.
type locationWire struct {
	LocationName any           `json:"locationName"`
	Hazards      []hazardWire  `json:"hazards"`
	Diseases     []diseaseWire `json:"diseases"`
	Summary      any           `json:"summary"`
}

type hazardWire struct {
	Hazard      any `json:"hazard"`
	Description any `json:"description"`
}

type diseaseWire struct {
	Name        any   `json:"name"`
	Cause       any   `json:"cause"`
	Precautions []any `json:"precautions"`
}

func (w locationWire) toAnalysis(nameFallback string) LocationAnalysis {
	a := LocationAnalysis{
		LocationName: sanitize.DisplayString(w.LocationName, nameFallback),
		Hazards:      make([]Hazard, 0, len(w.Hazards)),
		Diseases:     make([]Disease, 0, len(w.Diseases)),
		Summary:      sanitize.DisplayString(w.Summary, ""),
	}
	for _, h := range w.Hazards {
		hazard := Hazard{
			Hazard:      sanitize.DisplayString(h.Hazard, ""),
			Description: sanitize.DisplayString(h.Description, ""),
		}
		if hazard.Hazard == "" && hazard.Description == "" {
			continue
		}
		if hazard.Hazard == "" {
			hazard.Hazard = "Environmental hazard"
		}
		a.Hazards = append(a.Hazards, hazard)
	}
	for _, d := range w.Diseases {
		disease := Disease{
			Name:        sanitize.DisplayString(d.Name, ""),
			Cause:       sanitize.DisplayString(d.Cause, ""),
			Precautions: make([]string, 0, len(d.Precautions)),
		}
		if disease.Name == "" {
			continue
		}
		for _, p := range d.Precautions {
			if s := sanitize.DisplayString(p, ""); s != "" {
				disease.Precautions = append(disease.Precautions, s)
			}
		}
		a.Diseases = append(a.Diseases, disease)
	}
	if a.Summary == "" {
		a.Summary = "No analysis is available for this area yet."
	}
	return a
}

// AnalyzeLocation produces an environmental health analysis for a
// coordinate pair plus an illustrative synthetic view. The two provider
// calls run concurrently; the analysis call is fatal on failure, the
// image call degrades to an empty ImageURL. The bool reports whether
// the cache served the result.
func (g *Gateway) AnalyzeLocation(ctx context.Context, lat, lng float64, language, knownName string) (LocationReport, bool, error) {
	key := cache.Fingerprint("loc", locationSchemaVersion,
		cache.Coord(lat), cache.Coord(lng), language)

	var cached LocationReport
	if g.fromCache(ctx, key, &cached) {
		return cached, true, nil
	}

	placeContext := knownName
	if placeContext == "" {
		placeContext = "unknown area"
	}
	prompt := fmt.Sprintf(
		"Perform an environmental health analysis for coordinates %.4f, %.4f (context: %s). "+
			"Cover local hazards and prevalent diseases with precautions. Respond in %s.",
		lat, lng, placeContext, languageName(language))

	imagePrompt := fmt.Sprintf(
		"Synthetic satellite view of the biome at latitude %.4f, longitude %.4f. High detail.", lat, lng)

	type imageOut struct {
		il  provider.Illustration
		err error
	}
	imageCh := make(chan imageOut, 1)
	go func() {
		il, err := retry.Do(ctx, func() (provider.Illustration, error) {
			return g.ai.GenerateImage(ctx, g.models.Image, imagePrompt)
		})
		imageCh <- imageOut{il, err}
	}()

	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model:  g.models.Fast,
			Prompt: prompt,
			Schema: locationAnalysisSchema,
		})
	})
	image := <-imageCh

	if err != nil {
		return LocationReport{}, false, fmt.Errorf("location analysis: %w", err)
	}

	var wire locationWire
	if !sanitize.Decode(raw, &wire) {
		log.Printf("gateway: malformed location analysis response, returning defaults")
	}

	nameFallback := knownName
	if nameFallback == "" {
		nameFallback = "Selected Area"
	}
	report := LocationReport{Analysis: wire.toAnalysis(nameFallback)}

	if image.err != nil {
		log.Printf("gateway: illustrative image degraded: %v", image.err)
	} else {
		report.ImageURL = image.il.DataURL()
	}

	g.toCache(ctx, key, report, g.ttl.Location)
	return report, false, nil
}

// AnalyzeImage runs the hazard analysis on a user-supplied photo. Each
// image is unique, so nothing is cached.
func (g *Gateway) AnalyzeImage(ctx context.Context, image []byte, mimeType, language string) (LocationAnalysis, error) {
	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: "Analyze this photo for environmental and health hazards. " +
				"Identify the location or scene if possible. Respond in " + languageName(language) + ".",
			Image:     image,
			ImageMIME: mimeType,
			Schema:    locationAnalysisSchema,
		})
	})
	if err != nil {
		return LocationAnalysis{}, fmt.Errorf("image analysis: %w", err)
	}

	var wire locationWire
	if !sanitize.Decode(raw, &wire) {
		log.Printf("gateway: malformed image analysis response, returning defaults")
	}
	return wire.toAnalysis("Scanned Area"), nil
}

// Geocode resolves a free-text place query to coordinates. The resolved
// name falls back to the query itself. The bool reports whether the
// cache served the result.
func (g *Gateway) Geocode(ctx context.Context, query string) (GeocodeResult, bool, error) {
	key := cache.Fingerprint("geocode", geocodeSchemaVersion, normalizeQuery(query))

	var cached GeocodeResult
	if g.fromCache(ctx, key, &cached) {
		return cached, true, nil
	}

	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model:  g.models.Fast,
			Prompt: fmt.Sprintf("Geocode %q. Return the coordinates and the resolved place name.", query),
			Schema: geocodeSchema,
		})
	})
	if err != nil {
		return GeocodeResult{}, false, fmt.Errorf("geocode: %w", err)
	}

	var wire struct {
		Lat               float64 `json:"lat"`
		Lng               float64 `json:"lng"`
		FoundLocationName any     `json:"foundLocationName"`
	}
	sanitize.Decode(raw, &wire)

	result := GeocodeResult{
		Lat:  wire.Lat,
		Lng:  wire.Lng,
		Name: sanitize.DisplayString(wire.FoundLocationName, query),
	}
	g.toCache(ctx, key, result, g.ttl.Location)
	return result, false, nil
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), "-")
}

// languageName maps a BCP-47-ish tag to a prompt-friendly name. Unknown
// tags pass through unchanged; the model copes.
func languageName(tag string) string {
	switch strings.ToLower(tag) {
	case "", "en":
		return "English"
	case "hi":
		return "Hindi"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	default:
		return tag
	}
}
