// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// openaiAPIBase is the vendor API root. Package-level var for test substitution.
var openaiAPIBase = "https://api.openai.com/v1"

// systemPrompt is the fixed system role message sent with chat requests.
const systemPrompt = "You are a helpful assistant."

// OpenAIBackend calls the default vendor API. Whether the chat or the legacy
// completions endpoint is used is decided once, from the model name, at
// construction time.
type OpenAIBackend struct {
	APIKey string
	Model  string
	Client *http.Client

	chat bool
}

// NewOpenAIBackend builds the vendor backend for the given model. Models in
// the gpt-3.5/gpt-4 families speak the chat protocol; everything else falls
// back to the legacy completions protocol.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	return &OpenAIBackend{
		APIKey: apiKey,
		Model:  model,
		chat:   strings.Contains(model, "gpt-3.5") || strings.Contains(model, "gpt-4"),
	}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	N                int           `json:"n"`
	Stop             []string      `json:"stop,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

// legacyRequest is the legacy completions request body.
type legacyRequest struct {
	Model            string   `json:"model"`
	Prompt           string   `json:"prompt"`
	MaxTokens        int      `json:"max_tokens"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	N                int      `json:"n"`
	Stop             []string `json:"stop,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty"`
}

// wireChoice accepts both response shapes: the chat shape carries a message
// object, the legacy shape a bare text field.
type wireChoice struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Text *string `json:"text"`
}

type wireUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type wireCompletion struct {
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage"`
}

type wireError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends the prompt to the vendor API and normalizes the reply.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string, dec types.DecodingConfig) (Completion, error) {
	var (
		endpoint string
		body     any
	)
	if b.chat {
		endpoint = openaiAPIBase + "/chat/completions"
		body = chatRequest{
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
	} else {
		endpoint = openaiAPIBase + "/completions"
		body = legacyRequest{
			Model:            b.Model,
			Prompt:           prompt,
			MaxTokens:        dec.MaxTokens,
			Temperature:      dec.Temperature,
			TopP:             dec.TopP,
			N:                dec.N,
			Stop:             dec.Stop,
			PresencePenalty:  dec.PresencePenalty,
			FrequencyPenalty: dec.FrequencyPenalty,
		}
	}

	raw, err := postJSON(ctx, b.client(), endpoint, "Bearer "+b.APIKey, body)
	if err != nil {
		return Completion{}, err
	}
	return normalize("openai", raw)
}

func (b *OpenAIBackend) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}

// postJSON posts a JSON body with bearer authorization and returns the raw
// response bytes. Non-2xx responses are classified: a context-length
// rejection maps to errPromptTooLong, everything else to a generic backend
// error the Client retries.
func postJSON(ctx context.Context, client *http.Client, url, authorization string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if isPromptTooLong(raw) {
			return nil, fmt.Errorf("backend returned HTTP %d: %w", resp.StatusCode, errPromptTooLong)
		}
		return nil, fmt.Errorf("backend returned HTTP %d: %s", resp.StatusCode, truncateBody(raw))
	}
	return raw, nil
}

// isPromptTooLong inspects an error body for the vendor's context-length
// rejections in both their wordings.
func isPromptTooLong(raw []byte) bool {
	var we wireError
	if err := json.Unmarshal(raw, &we); err != nil {
		return false
	}
	if we.Error.Code == "context_length_exceeded" {
		return true
	}
	msg := we.Error.Message
	return strings.Contains(msg, "Please reduce your prompt") ||
		strings.Contains(msg, "maximum context length")
}

// normalize converts a raw completion body into the uniform in-memory shape.
// It accepts choices carrying either a message object or a text field, and
// treats a missing usage block as zero tokens.
func normalize(backend string, raw []byte) (Completion, error) {
	var wc wireCompletion
	if err := json.Unmarshal(raw, &wc); err != nil {
		return Completion{}, &ProtocolError{Backend: backend, Body: string(raw)}
	}
	if len(wc.Choices) == 0 {
		return Completion{}, &ProtocolError{Backend: backend, Body: string(raw)}
	}

	total := 0
	if wc.Usage != nil {
		total = wc.Usage.TotalTokens
	}

	out := Completion{Choices: make([]Choice, 0, len(wc.Choices))}
	for _, ch := range wc.Choices {
		switch {
		case ch.Message != nil:
			out.Choices = append(out.Choices, Choice{Text: ch.Message.Content, TotalTokens: total})
		case ch.Text != nil:
			out.Choices = append(out.Choices, Choice{Text: *ch.Text, TotalTokens: total})
		default:
			return Completion{}, &ProtocolError{Backend: backend, Body: string(raw)}
		}
	}
	return out, nil
}

func truncateBody(raw []byte) string {
	const max = 200
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
