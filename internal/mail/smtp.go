// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// smtpSend is the transport call, swapped out in tests.
var smtpSend = smtp.SendMail

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

func newSMTPSender(cfg types.MailConfig) (*smtpSender, error) {
	if err := validateAddresses(cfg); err != nil {
		return nil, err
	}
	port := cfg.SMTP.Port
	if port == 0 {
		port = 587
	}
	return &smtpSender{
		host:     cfg.SMTP.Host,
		port:     port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.From,
		to:       cfg.To,
	}, nil
}

func (s *smtpSender) Name() string { return "smtp" }

func (s *smtpSender) Send(ctx context.Context, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	msg := buildMessage(s.from, s.to, subject, html)
	if err := smtpSend(addr, auth, s.from, []string{s.to}, msg); err != nil {
		return fmt.Errorf("smtp delivery via %s: %w", addr, err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body. Header
// lines use CRLF endings as the protocol requires.
func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
