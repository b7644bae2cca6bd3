// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// CustomBackend calls an OpenAI-compatible endpoint (SiliconFlow, OpenRouter,
// a self-hosted gateway). The wire contract is the chat completions shape;
// replies may carry either a message object or a text field per choice, and
// the usage block is optional.
type CustomBackend struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

// NewCustomBackend validates the endpoint configuration. All three of URL,
// credential, and model must be present; this fails before any HTTP call.
func NewCustomBackend(cfg types.CustomBackendConfig) (*CustomBackend, error) {
	switch {
	case cfg.URL == "":
		return nil, fmt.Errorf("%w: missing endpoint URL", ErrMissingConfig)
	case cfg.APIKey == "":
		return nil, fmt.Errorf("%w: missing API key (set CUSTOM_API_KEY)", ErrMissingConfig)
	case cfg.Model == "":
		return nil, fmt.Errorf("%w: missing model name", ErrMissingConfig)
	}
	return &CustomBackend{URL: cfg.URL, APIKey: cfg.APIKey, Model: cfg.Model}, nil
}

// Name returns the backend identifier.
func (b *CustomBackend) Name() string { return "custom" }

// Complete posts the prompt to the configured endpoint and normalizes the reply.
func (b *CustomBackend) Complete(ctx context.Context, prompt string, dec types.DecodingConfig) (Completion, error) {
	body := chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:        dec.MaxTokens,
		Temperature:      dec.Temperature,
		TopP:             dec.TopP,
		N:                dec.N,
		Stop:             dec.Stop,
		PresencePenalty:  dec.PresencePenalty,
		FrequencyPenalty: dec.FrequencyPenalty,
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	raw, err := postJSON(ctx, client, b.URL, "Bearer "+b.APIKey, body)
	if err != nil {
		return Completion{}, err
	}
	return normalize("custom", raw)
}
