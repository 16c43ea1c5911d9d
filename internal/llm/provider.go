// Package llm provides translation collaborators backed by the OpenAI chat
// API and by Gemini. Their answers are shaped like the Reverso helper's
// payloads so the same extraction and fallback logic applies.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/rode/internal/reverso"
)

// maxCandidates caps how many lines of a model answer become candidates.
const maxCandidates = 5

// Config holds configuration for the OpenAI collaborator
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // Optional, for compatible endpoints
}

// Provider implements reverso.Collaborator using OpenAI
type Provider struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewProvider creates a new OpenAI collaborator
func NewProvider(config Config) *Provider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Provider{
		apiKey: config.APIKey,
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Invoke asks the model for translations or contextual renderings of req.Text.
func (p *Provider) Invoke(ctx context.Context, req reverso.Request) (reverso.Payload, error) {
	if p.apiKey == "" {
		return reverso.Failure("OpenAI API key not found"), nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(req),
			},
		},
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return reverso.Failure(fmt.Sprintf("OpenAI API error: %v", err)), nil
	}

	if len(resp.Choices) == 0 {
		return reverso.Failure("no translation returned"), nil
	}

	return shape(req.Mode, candidates(resp.Choices[0].Message.Content))
}

func prompt(req reverso.Request) string {
	if req.Mode == reverso.ModeContext {
		return fmt.Sprintf("Give up to %d short example phrases in %s that translate the %s word '%s' as it is used in context. "+
			"Respond with one %s phrase per line, nothing else.", maxCandidates, req.To, req.From, req.Text, req.To)
	}

	return fmt.Sprintf("Translate the %s word '%s' to %s. "+
		"Respond with up to %d %s translations, most common first, one per line, nothing else.",
		req.From, req.Text, req.To, maxCandidates, req.To)
}

// candidates splits a model answer into clean lines.
func candidates(content string) []string {
	var out []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"'`)
		if line == "" {
			continue
		}

		out = append(out, line)
		if len(out) == maxCandidates {
			break
		}
	}

	return out
}

// shape builds a helper-like payload for the given mode.
func shape(mode reverso.Mode, lines []string) (reverso.Payload, error) {
	var result any

	if mode == reverso.ModeContext {
		examples := make([]map[string]string, 0, len(lines))
		for _, line := range lines {
			examples = append(examples, map[string]string{"translation": line})
		}
		result = map[string]any{"examples": examples}
	} else {
		if lines == nil {
			lines = []string{}
		}
		result = map[string]any{"translation": lines}
	}

	data, err := json.Marshal(map[string]any{
		"ok":     true,
		"mode":   mode,
		"result": result,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	return data, nil
}
