// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mail delivers the rendered digest by email. Two backends are
// supported: the SendGrid v3 API and a plain SMTP relay. When no
// credential is configured delivery is skipped and the digest only lands
// on disk.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrNoBackend is returned by NewSender when the config enables no
// delivery backend.
var ErrNoBackend = errors.New("no mail backend configured")

// Sender delivers one HTML message.
type Sender interface {
	// Name identifies the backend in progress output.
	Name() string

	// Send delivers html to the configured recipient under subject.
	Send(ctx context.Context, subject, html string) error
}

// NewSender picks a delivery backend from the config. SendGrid wins when
// both are configured, matching the order credentials are usually set up.
// Callers treat ErrNoBackend as "skip delivery", not as a failure.
func NewSender(cfg types.MailConfig) (Sender, error) {
	switch {
	case cfg.SendGridAPIKey != "":
		return newSendGridSender(cfg)
	case cfg.SMTP.Host != "":
		return newSMTPSender(cfg)
	default:
		return nil, ErrNoBackend
	}
}

func validateAddresses(cfg types.MailConfig) error {
	if cfg.From == "" {
		return fmt.Errorf("mail config: missing sender address")
	}
	if cfg.To == "" {
		return fmt.Errorf("mail config: missing recipient address")
	}
	return nil
}
