// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// sendgridAPIBase is the SendGrid v3 API root. Tests point it at a local server.
var sendgridAPIBase = "https://api.sendgrid.com/v3"

type sendGridSender struct {
	apiKey string
	from   string
	to     string
	client *http.Client
}

func newSendGridSender(cfg types.MailConfig) (*sendGridSender, error) {
	if err := validateAddresses(cfg); err != nil {
		return nil, err
	}
	return &sendGridSender{
		apiKey: cfg.SendGridAPIKey,
		from:   cfg.From,
		to:     cfg.To,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *sendGridSender) Name() string { return "sendgrid" }

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (s *sendGridSender) Send(ctx context.Context, subject, html string) error {
	payload, err := json.Marshal(sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: s.to}}}},
		From:             sendGridAddress{Email: s.from},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/html", Value: html}},
	})
	if err != nil {
		return fmt.Errorf("encoding mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridAPIBase+"/mail/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	// SendGrid answers 202 Accepted on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendgrid returned HTTP %d: %s", resp.StatusCode, body)
	}
	return nil
}
