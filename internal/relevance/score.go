// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores paper batches against a free-text interest
// statement using a text-generation backend, and reconciles the model's
// semi-structured replies back onto the input papers.
package relevance

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/paper-digest/internal/llm"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultThreshold = 6
	defaultBatchSize = 8

	// tokensPerPaper sizes the requested output length: each paper needs
	// room for a bilingual record.
	tokensPerPaper = 256
)

// CompletionClient sends one prompt and returns a normalized completion.
// *llm.Client implements it; tests supply a mock.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, dec types.DecodingConfig) (llm.Completion, error)
}

// applyDecodingDefaults fills unset decoding knobs field by field. TopP and
// N get their defaults whenever they are zero, since 0 is invalid for both.
// Temperature falls back to the default only when the whole block was left
// empty: 0 is a meaningful temperature once the user sets anything.
func applyDecodingDefaults(dec types.DecodingConfig) types.DecodingConfig {
	def := types.DefaultDecoding()

	blockUnset := dec.MaxTokens == 0 && dec.Temperature == 0 && dec.TopP == 0 &&
		dec.N == 0 && len(dec.Stop) == 0 &&
		dec.PresencePenalty == 0 && dec.FrequencyPenalty == 0
	if blockUnset {
		dec.Temperature = def.Temperature
	}
	if dec.TopP == 0 {
		dec.TopP = def.TopP
	}
	if dec.N <= 0 {
		dec.N = def.N
	}
	return dec
}

// Score partitions papers into consecutive batches, runs each batch through
// encode, complete, and reconcile in sequence, and returns the merged result
// sorted by relevancy score descending (ties keep produced order).
//
// Batches go out one at a time; the loop blocks on each network round trip,
// so backend rate limits naturally throttle the run. An empty paper list
// returns an empty result without contacting the backend. Any fatal error
// aborts the whole run.
func Score(ctx context.Context, client CompletionClient, papers []types.Paper, cfg types.ScoringConfig, w io.Writer) (types.RunResult, error) {
	if w == nil {
		w = io.Discard
	}
	if len(papers) == 0 {
		return types.RunResult{}, nil
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	dec := applyDecodingDefaults(cfg.Decoding)
	dec.MaxTokens = tokensPerPaper * batchSize

	var result types.RunResult
	batches := (len(papers) + batchSize - 1) / batchSize

	for start := 0; start < len(papers); start += batchSize {
		end := start + batchSize
		if end > len(papers) {
			end = len(papers)
		}
		batch := papers[start:end]
		batchNum := start/batchSize + 1

		prompt, err := EncodePrompt(cfg.Interest, batch)
		if err != nil {
			return types.RunResult{}, fmt.Errorf("batch %d/%d: %w", batchNum, batches, err)
		}

		comp, err := client.Complete(ctx, prompt, dec)
		if err != nil {
			return types.RunResult{}, fmt.Errorf("batch %d/%d: %w", batchNum, batches, err)
		}

		br, err := Reconcile(batch, comp, threshold)
		if err != nil {
			return types.RunResult{}, fmt.Errorf("batch %d/%d: %w", batchNum, batches, err)
		}

		result.Hallucination = result.Hallucination || br.Hallucination
		result.Papers = append(result.Papers, br.Papers...)

		fmt.Fprintf(w, "batch %d/%d: %d of %d papers above threshold\n", batchNum, batches, len(br.Papers), len(batch))
	}

	sort.SliceStable(result.Papers, func(i, j int) bool {
		return result.Papers[i].Score > result.Papers[j].Score
	})

	fmt.Fprintf(w, "total relevant papers: %d\n", len(result.Papers))
	return result, nil
}
