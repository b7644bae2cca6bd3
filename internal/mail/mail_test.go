// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func TestNewSenderSelection(t *testing.T) {
	base := types.MailConfig{From: "digest@example.com", To: "reader@example.com"}

	_, err := NewSender(base)
	assert.ErrorIs(t, err, ErrNoBackend)

	cfg := base
	cfg.SendGridAPIKey = "SG.test"
	s, err := NewSender(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", s.Name())

	cfg = base
	cfg.SMTP.Host = "smtp.example.com"
	s, err = NewSender(cfg)
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())

	// SendGrid wins when both are configured.
	cfg.SendGridAPIKey = "SG.test"
	s, err = NewSender(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", s.Name())
}

func TestNewSenderRejectsMissingAddresses(t *testing.T) {
	_, err := NewSender(types.MailConfig{SendGridAPIKey: "SG.test", To: "reader@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender address")

	_, err = NewSender(types.MailConfig{SendGridAPIKey: "SG.test", From: "digest@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient address")
}

func TestSendGridRequestShape(t *testing.T) {
	var got sendGridRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	oldBase := sendgridAPIBase
	sendgridAPIBase = ts.URL
	defer func() { sendgridAPIBase = oldBase }()

	s, err := NewSender(types.MailConfig{
		From:           "digest@example.com",
		To:             "reader@example.com",
		SendGridAPIKey: "SG.test",
	})
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), "Today's digest", "<h1>hi</h1>"))

	assert.Equal(t, "Bearer SG.test", auth)
	assert.Equal(t, "digest@example.com", got.From.Email)
	require.Len(t, got.Personalizations, 1)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "reader@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "Today's digest", got.Subject)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/html", got.Content[0].Type)
	assert.Equal(t, "<h1>hi</h1>", got.Content[0].Value)
}

func TestSendGridErrorSurfacesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer ts.Close()

	oldBase := sendgridAPIBase
	sendgridAPIBase = ts.URL
	defer func() { sendgridAPIBase = oldBase }()

	s, err := NewSender(types.MailConfig{
		From:           "digest@example.com",
		To:             "reader@example.com",
		SendGridAPIKey: "SG.bad",
	})
	require.NoError(t, err)

	err = s.Send(context.Background(), "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestSMTPSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	oldSend := smtpSend
	smtpSend = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}
	defer func() { smtpSend = oldSend }()

	s, err := NewSender(types.MailConfig{
		From: "digest@example.com",
		To:   "reader@example.com",
		SMTP: types.SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), "Today's digest", "<h1>hi</h1>"))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "digest@example.com", gotFrom)
	assert.Equal(t, []string{"reader@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Today's digest\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(msg, "\r\n<h1>hi</h1>"))
}

func TestSMTPSendCancelledContext(t *testing.T) {
	oldSend := smtpSend
	called := false
	smtpSend = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	defer func() { smtpSend = oldSend }()

	s, err := NewSender(types.MailConfig{
		From: "digest@example.com",
		To:   "reader@example.com",
		SMTP: types.SMTPConfig{Host: "smtp.example.com"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "subject", "body"), context.Canceled)
	assert.False(t, called)
}
