// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, custom-api-key, sendgrid-api-key, smtp-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills the credential fields of cfg from the loaded secrets and the
// environment. Environment variables take precedence over key files, and
// both leave values already present in the config alone.
func Apply(secrets map[string]string, cfg *types.PipelineConfig) {
	apply := func(dst *string, envName, fileName string) {
		if *dst != "" {
			return
		}
		if v := os.Getenv(envName); v != "" {
			*dst = v
			return
		}
		*dst = secrets[fileName]
	}

	apply(&cfg.Scoring.APIKey, "OPENAI_API_KEY", "openai-api-key")
	apply(&cfg.Scoring.Custom.APIKey, "CUSTOM_API_KEY", "custom-api-key")
	apply(&cfg.Mail.SendGridAPIKey, "SENDGRID_API_KEY", "sendgrid-api-key")
	apply(&cfg.Mail.SMTP.Password, "SMTP_PASSWORD", "smtp-password")
}
