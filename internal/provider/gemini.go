package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Generator on the official SDK. One SDK client is
// shared; a fresh GenerativeModel is configured per call because model
// name, schema and tools vary by operation.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	model := g.client.GenerativeModel(req.Model)
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = req.Schema
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	parts := make([]genai.Part, 0, 2)
	if len(req.Image) > 0 {
		format := strings.TrimPrefix(req.ImageMIME, "image/")
		if format == "" {
			format = "jpeg"
		}
		parts = append(parts, genai.ImageData(format, req.Image))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate json (%s): %w", req.Model, err)
	}
	return responseText(resp), nil
}

func (g *Gemini) GenerateGrounded(ctx context.Context, req GroundedRequest) (GroundedResult, error) {
	model := g.client.GenerativeModel(req.Model)
	model.Tools = []*genai.Tool{
		{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
	}

	prompt := req.Prompt
	if req.Bias != nil {
		prompt = fmt.Sprintf("%s\nFocus on the area around latitude %.4f, longitude %.4f.",
			prompt, req.Bias.Lat, req.Bias.Lng)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return GroundedResult{}, fmt.Errorf("generate grounded (%s): %w", req.Model, err)
	}

	return GroundedResult{
		Text:    responseText(resp),
		Sources: responseSources(resp),
	}, nil
}

func (g *Gemini) GenerateImage(ctx context.Context, modelName, prompt string) (Illustration, error) {
	model := g.client.GenerativeModel(modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Illustration{}, fmt.Errorf("generate image (%s): %w", modelName, err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				return Illustration{MIMEType: blob.MIMEType, Data: blob.Data}, nil
			}
		}
	}
	return Illustration{}, fmt.Errorf("generate image (%s): no inline image in response", modelName)
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of all candidates, tolerant
// of empty candidates and nil content.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

func responseSources(resp *genai.GenerateContentResponse) []Source {
	if resp == nil {
		return nil
	}
	var sources []Source
	for _, cand := range resp.Candidates {
		if cand.CitationMetadata == nil {
			continue
		}
		for _, cs := range cand.CitationMetadata.CitationSources {
			src := Source{}
			if cs.URI != nil {
				src.URI = *cs.URI
			}
			if src.URI != "" {
				sources = append(sources, src)
			}
		}
	}
	return sources
}

// DataURL renders an illustration as a browser-ready data URL.
func (il Illustration) DataURL() string {
	if len(il.Data) == 0 {
		return ""
	}
	mime := il.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(il.Data)
}
