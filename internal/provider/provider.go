// Package provider wraps the Gemini SDK behind a small interface the
// gateway can fake in tests. Three call shapes cover everything the
// gateway does: schema-constrained JSON generation (optionally
// multimodal), search-grounded free text, and image generation.
package provider

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

type LatLng struct {
	Lat float64
	Lng float64
}

// JSONRequest is a structured-output call. When Schema is set the
// provider constrains generation to that shape; adherence is
// probabilistic either way, so callers still decode leniently.
type JSONRequest struct {
	Model  string
	Prompt string
	// System, when set, becomes the system instruction.
	System string
	// Image carries inline bytes for multimodal calls. ImageMIME is the
	// image subtype ("jpeg", "png"); empty means jpeg.
	Image     []byte
	ImageMIME string
	Schema    *genai.Schema
}

// GroundedRequest is a retrieval-augmented call. The response reflects
// live search results and is NOT schema-constrained; callers follow it
// with a structuring JSONRequest. Bias hints the search toward a
// geographic point.
type GroundedRequest struct {
	Model  string
	Prompt string
	Bias   *LatLng
}

type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type GroundedResult struct {
	Text    string
	Sources []Source
}

type Illustration struct {
	MIMEType string
	Data     []byte
}

type Generator interface {
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)
	GenerateGrounded(ctx context.Context, req GroundedRequest) (GroundedResult, error)
	GenerateImage(ctx context.Context, model, prompt string) (Illustration, error)
}
