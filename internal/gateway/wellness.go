package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/provider"
	"github.com/geohealth/gateway/internal/retry"
	"github.com/geohealth/gateway/internal/sanitize"
)

// AnalyzePrescription reads a photographed prescription. Images are
// unique, so nothing is cached.
func (g *Gateway) AnalyzePrescription(ctx context.Context, image []byte, mimeType, language string) (PrescriptionAnalysis, error) {
	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: "Extract the prescription details from this image: medicines with dosage and " +
				"purpose, precautions, and a plain-language summary. Respond in " + languageName(language) + ".",
			Image:     image,
			ImageMIME: mimeType,
			Schema:    prescriptionSchema,
		})
	})
	if err != nil {
		return PrescriptionAnalysis{}, fmt.Errorf("prescription analysis: %w", err)
	}

	var result PrescriptionAnalysis
	if !sanitize.Decode(raw, &result) {
		log.Printf("gateway: malformed prescription response, returning defaults")
	}
	if result.Medicines == nil {
		result.Medicines = []Medicine{}
	}
	if result.Precautions == nil {
		result.Precautions = []string{}
	}
	if result.Videos == nil {
		result.Videos = []string{}
	}
	if result.Summary == "" {
		result.Summary = "The prescription could not be read clearly. Please retake the photo."
	}
	return result, nil
}

// AnalyzeMentalHealth turns a check-in questionnaire into a reflective
// wellness summary. Answers are personal; nothing is cached.
func (g *Gateway) AnalyzeMentalHealth(ctx context.Context, answers map[string]string, language string) (MentalHealthResult, error) {
	encoded, _ := json.Marshal(answers)

	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Reasoning,
			Prompt: fmt.Sprintf("Perform a supportive mental wellness reflection based on this check-in: %s. "+
				"This is not a diagnosis. Respond in %s.", encoded, languageName(language)),
			Schema: mentalHealthSchema,
		})
	})
	if err != nil {
		return MentalHealthResult{}, fmt.Errorf("mental health analysis: %w", err)
	}

	var result MentalHealthResult
	if !sanitize.Decode(raw, &result) {
		log.Printf("gateway: malformed mental health response, returning defaults")
	}
	if result.PotentialConcerns == nil {
		result.PotentialConcerns = []Concern{}
	}
	if result.CopingStrategies == nil {
		result.CopingStrategies = []CopingStrategy{}
	}
	return result, nil
}

// AnalyzeSymptoms gives preliminary, non-diagnostic guidance for a
// free-text symptom description.
func (g *Gateway) AnalyzeSymptoms(ctx context.Context, symptoms, language string) (SymptomAnalysis, error) {
	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: fmt.Sprintf("Analyze these symptoms: %q. List possible causes, self-care steps, and "+
				"when to seek professional help. This is not a diagnosis. Respond in %s.",
				symptoms, languageName(language)),
			Schema: symptomSchema,
		})
	})
	if err != nil {
		return SymptomAnalysis{}, fmt.Errorf("symptom analysis: %w", err)
	}

	var result SymptomAnalysis
	if !sanitize.Decode(raw, &result) {
		log.Printf("gateway: malformed symptom response, returning defaults")
	}
	if result.PossibleCauses == nil {
		result.PossibleCauses = []Concern{}
	}
	if result.SelfCare == nil {
		result.SelfCare = []string{}
	}
	return result, nil
}

// GetHealthForecast returns a short-term health outlook (air quality,
// pollen, seasonal illness) for a coordinate pair. The bool reports
// whether the cache served the result.
func (g *Gateway) GetHealthForecast(ctx context.Context, lat, lng float64, language string) (HealthForecast, bool, error) {
	key := cache.Fingerprint("forecast", forecastSchemaVersion,
		cache.Coord(lat), cache.Coord(lng), language)

	var cached HealthForecast
	if g.fromCache(ctx, key, &cached) {
		return cached, true, nil
	}

	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: fmt.Sprintf("Produce a short-term health briefing for GPS %.4f, %.4f: air quality, "+
				"pollen, seasonal illness risk, with practical recommendations. Respond in %s.",
				lat, lng, languageName(language)),
			Schema: forecastSchema,
		})
	})
	if err != nil {
		return HealthForecast{}, false, fmt.Errorf("health forecast: %w", err)
	}

	var wire struct {
		LocationName    any          `json:"locationName"`
		Summary         string       `json:"summary"`
		Risks           []RiskFactor `json:"risks"`
		Recommendations []string     `json:"recommendations"`
	}
	if !sanitize.Decode(raw, &wire) {
		log.Printf("gateway: malformed forecast response, returning defaults")
	}

	forecast := HealthForecast{
		LocationName:    sanitize.DisplayString(wire.LocationName, "Current Area"),
		Summary:         wire.Summary,
		Risks:           wire.Risks,
		Recommendations: wire.Recommendations,
	}
	if forecast.Risks == nil {
		forecast.Risks = []RiskFactor{}
	}
	if forecast.Recommendations == nil {
		forecast.Recommendations = []string{}
	}

	g.toCache(ctx, key, forecast, g.ttl.Forecast)
	return forecast, false, nil
}

// BotCommand interprets a chat message as either an in-app navigation
// or a spoken reply. availablePages constrains where the assistant may
// send the user.
func (g *Gateway) BotCommand(ctx context.Context, prompt, language string, availablePages []string) (BotCommand, error) {
	system := fmt.Sprintf("You are the in-app assistant. You can navigate to exactly these pages: [%s]. "+
		"If the user asks to go somewhere, answer with action \"navigate\" and the page; otherwise answer "+
		"with action \"speak\". Reply in %s. JSON only.",
		strings.Join(availablePages, ", "), languageName(language))

	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model:  g.models.Reasoning,
			Prompt: prompt,
			System: system,
			Schema: botCommandSchema,
		})
	})
	if err != nil {
		return BotCommand{}, fmt.Errorf("bot command: %w", err)
	}

	var cmd BotCommand
	if !sanitize.Decode(raw, &cmd) {
		log.Printf("gateway: malformed bot command response, returning defaults")
	}
	if cmd.Action != ActionNavigate && cmd.Action != ActionSpeak {
		cmd.Action = ActionSpeak
	}
	if cmd.Action != ActionNavigate {
		cmd.Page = ""
	}
	if cmd.ResponseText == "" {
		cmd.ResponseText = "Sorry, I did not catch that. Could you rephrase?"
	}
	return cmd, nil
}
