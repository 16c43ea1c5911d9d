package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"codeberg.org/snonux/rode/internal/reverso"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements reverso.Collaborator using the Gemini API
type GeminiProvider struct {
	model  string
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini collaborator. Without an API key
// every invocation yields a failure payload.
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	p := &GeminiProvider{model: model}
	if config.APIKey == "" {
		return p, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client

	return p, nil
}

// Invoke asks Gemini for translations or contextual renderings of req.Text.
func (p *GeminiProvider) Invoke(ctx context.Context, req reverso.Request) (reverso.Payload, error) {
	if p.client == nil {
		return reverso.Failure("Gemini API key not found"), nil
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt(req)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return reverso.Failure(fmt.Sprintf("Gemini API error: %v", err)), nil
	}

	text := resp.Text()
	if text == "" {
		return reverso.Failure("no translation returned"), nil
	}

	return shape(req.Mode, candidates(text))
}
