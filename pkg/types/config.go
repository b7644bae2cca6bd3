// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the listing fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// UseAPI selects the arXiv Atom API instead of scraping the
	// /list/<field>/new HTML page.
	UseAPI bool `json:"use_api" yaml:"use_api"`

	// DataDir is the directory for date-keyed day-store files (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// ListingBase is the base URL for HTML listings (default "https://arxiv.org/list").
	ListingBase string `json:"listing_base,omitempty" yaml:"listing_base,omitempty"`

	// APIBase is the arXiv API endpoint (default "https://export.arxiv.org/api/query").
	APIBase string `json:"api_base,omitempty" yaml:"api_base,omitempty"`

	// MaxResults caps the number of papers fetched per topic in API mode.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DecodingConfig holds generation-time knobs sent with each completion
// request. MaxTokens may be reduced in-place on a per-request copy when the
// backend rejects a prompt as too long; the original value is never changed.
type DecodingConfig struct {
	MaxTokens        int      `json:"max_tokens" yaml:"max_tokens"`
	Temperature      float64  `json:"temperature" yaml:"temperature"`
	TopP             float64  `json:"top_p" yaml:"top_p"`
	N                int      `json:"n" yaml:"n"`
	Stop             []string `json:"stop,omitempty" yaml:"stop,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
}

// DefaultDecoding returns the decoding knobs used when the config file
// leaves them unset.
func DefaultDecoding() DecodingConfig {
	return DecodingConfig{
		MaxTokens:   1800,
		Temperature: 0.4,
		TopP:        1.0,
		N:           1,
	}
}

// CustomBackendConfig selects an OpenAI-compatible endpoint in place of the
// default vendor API. When Enabled is set, URL, APIKey, and Model must all
// be present.
type CustomBackendConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string `json:"model" yaml:"model"`
}

// ScoringConfig holds settings for the relevance scoring stage.
type ScoringConfig struct {
	// Model is the vendor model identifier (e.g. "gpt-3.5-turbo-16k").
	// Ignored when Custom.Enabled is set.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the default vendor API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Interest is the free-text statement of the reader's interests.
	Interest string `json:"interest" yaml:"interest"`

	// Threshold is the minimum relevancy score (0-10) a paper needs to be
	// kept (default 6).
	Threshold int `json:"threshold" yaml:"threshold"`

	// BatchSize is the number of papers per prompt (default 8).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Decoding holds the generation knobs; MaxTokens is recomputed per
	// batch as 256 tokens per paper.
	Decoding DecodingConfig `json:"decoding" yaml:"decoding"`

	// Custom selects an OpenAI-compatible endpoint instead of the vendor API.
	Custom CustomBackendConfig `json:"custom" yaml:"custom"`
}

// MailConfig holds settings for digest delivery. When no credential is
// available the digest is only written to disk.
type MailConfig struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// SendGridAPIKey enables the SendGrid backend when set.
	SendGridAPIKey string `json:"sendgrid_api_key,omitempty" yaml:"sendgrid_api_key,omitempty"`

	// SMTP enables the SMTP backend when Host is set.
	SMTP SMTPConfig `json:"smtp" yaml:"smtp"`
}

// SMTPConfig holds SMTP relay settings for the mail stage.
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// DigestConfig holds settings for HTML digest rendering.
type DigestConfig struct {
	// OutputPath is where the rendered HTML is written (default "digest.html").
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Heading is the English digest heading.
	Heading string `json:"heading" yaml:"heading"`

	// HeadingLocalized is the localized digest heading, rendered below the
	// English one when present.
	HeadingLocalized string `json:"heading_localized,omitempty" yaml:"heading_localized,omitempty"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file (default "data/digest.db").
	Path string `json:"path" yaml:"path"`

	// MaxRuns caps how many runs the history command lists (default 20).
	MaxRuns int `json:"max_runs" yaml:"max_runs"`
}

// PipelineConfig groups all stage configurations for the digest pipeline.
type PipelineConfig struct {
	// Topics lists the arXiv topics to fetch (e.g. "Computer Science").
	Topics []string `json:"topics" yaml:"topics"`

	// Categories filters papers to these subject categories; empty keeps all.
	Categories []string `json:"categories" yaml:"categories"`

	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Digest  DigestConfig  `json:"digest" yaml:"digest"`
	Mail    MailConfig    `json:"mail" yaml:"mail"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}
