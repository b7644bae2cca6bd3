// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm sends prompts to a text-generation backend and normalizes
// the replies. Two backends exist: the default vendor API and an
// OpenAI-compatible custom endpoint. The backend is chosen once at
// construction; callers only see the Client and the normalized Completion.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Choice is one generated alternative in a completion.
type Choice struct {
	// Text is the generated text, regardless of whether the backend
	// returned it as a chat message or a bare text field.
	Text string

	// TotalTokens is the token usage reported by the backend, 0 when the
	// backend omitted a usage block.
	TotalTokens int
}

// Completion is the normalized reply from any backend.
type Completion struct {
	Choices []Choice
}

// Text returns the first choice's text, or "" when the completion is empty.
func (c Completion) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Text
}

// Backend sends a single prompt to a text-generation service. Implementations
// classify failures with errPromptTooLong and *ProtocolError so the Client
// can decide what to retry.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string, dec types.DecodingConfig) (Completion, error)
}

// ErrMissingConfig reports that the custom backend was selected without a
// complete endpoint configuration.
var ErrMissingConfig = errors.New("custom backend configuration incomplete")

// ProtocolError reports a response whose shape neither normalization path
// recognized. Body carries the raw response for diagnosis.
type ProtocolError struct {
	Backend string
	Body    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unrecognized completion response shape", e.Backend)
}

// errPromptTooLong marks a backend rejection that is recovered by shrinking
// the requested output length instead of consuming the retry budget.
var errPromptTooLong = errors.New("prompt too long")

// retrySleep is the fixed delay between retry attempts. Tests override this
// to avoid real sleeps.
var retrySleep = 2 * time.Second

const (
	defaultMaxRetries = 3

	// tooLongShrink is the fraction of the requested max output length
	// kept after a "prompt too long" rejection.
	tooLongShrink = 0.8
)

// Client drives a Backend with bounded retry and adaptive output-length
// truncation.
type Client struct {
	backend    Backend
	maxRetries int
	out        io.Writer
}

// NewClient builds a Client for the backend selected by cfg. The custom
// endpoint is used when cfg.Custom.Enabled is set; its URL, credential, and
// model are validated here, before any request is made.
func NewClient(cfg types.ScoringConfig, w io.Writer) (*Client, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var backend Backend
	if cfg.Custom.Enabled {
		b, err := NewCustomBackend(cfg.Custom)
		if err != nil {
			return nil, err
		}
		backend = b
	} else {
		backend = NewOpenAIBackend(cfg.APIKey, cfg.Model)
	}

	if w == nil {
		w = io.Discard
	}
	return &Client{backend: backend, maxRetries: maxRetries, out: w}, nil
}

// BackendName returns the name of the selected backend.
func (c *Client) BackendName() string { return c.backend.Name() }

// Complete sends one prompt and returns the normalized completion.
//
// Transport and backend errors are retried up to the configured count with a
// fixed sleep between attempts; the final failure is returned with the retry
// count attached. A "prompt too long" rejection does not consume the retry
// budget: the requested max output length is cut to 80% and the request is
// reissued immediately. The reduction is scoped to this call; the caller's
// decoding config is never modified.
func (c *Client) Complete(ctx context.Context, prompt string, dec types.DecodingConfig) (Completion, error) {
	attempt := 0
	for {
		comp, err := c.backend.Complete(ctx, prompt, dec)
		if err == nil {
			return comp, nil
		}

		if errors.Is(err, errPromptTooLong) {
			dec.MaxTokens = int(float64(dec.MaxTokens) * tooLongShrink)
			if dec.MaxTokens < 1 {
				return Completion{}, fmt.Errorf("%s: prompt too long even at minimum output length: %w", c.backend.Name(), err)
			}
			fmt.Fprintf(c.out, "warning: prompt too long, reducing max_tokens to %d and retrying\n", dec.MaxTokens)
			continue
		}

		attempt++
		if attempt > c.maxRetries {
			return Completion{}, fmt.Errorf("%s: giving up after %d retries: %w", c.backend.Name(), c.maxRetries, err)
		}

		fmt.Fprintf(c.out, "warning: %s request failed (%v), retrying\n", c.backend.Name(), err)
		select {
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		case <-time.After(retrySleep):
		}
	}
}
