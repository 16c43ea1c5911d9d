package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNoAPIKey = errors.New("OpenAI API key not found, set OPENAI_API_KEY or openai.key in .rode.yaml")

// ChatModels lists the chat models usable as openai.model, sorted.
func (p *Provider) ChatModels(ctx context.Context) ([]string, error) {
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var chat []string
	for _, model := range models.Models {
		id := model.ID
		// Audio and realtime variants cannot answer plain chat completions
		if strings.Contains(id, "tts") || strings.Contains(id, "audio") || strings.Contains(id, "realtime") {
			continue
		}
		if strings.Contains(id, "gpt") || strings.Contains(id, "chat") {
			chat = append(chat, id)
		}
	}

	sort.Strings(chat)

	return chat, nil
}
