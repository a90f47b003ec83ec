// Package mailer delivers transactional email through a Resend-compatible
// HTTP API. Delivery failure is surfaced to callers so protocols that hand a
// code to the recipient can retract state the recipient never saw.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sender delivers one transactional message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Client sends mail through a Resend-compatible POST /emails endpoint.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	httpc   *http.Client
}

// NewClient constructs a Client for the given API endpoint and sender address.
func NewClient(baseURL, apiKey, from string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// sendEmailRequest is the Resend send email API request body.
type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send posts one message and fails on any non-2xx response.
func (c *Client) Send(ctx context.Context, to, subject, text, html string) error {
	body, errMarshal := json.Marshal(sendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	if errMarshal != nil {
		return fmt.Errorf("mailer: marshal request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if errReq != nil {
		return fmt.Errorf("mailer: build request: %w", errReq)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := c.httpc.Do(req)
	if errDo != nil {
		return fmt.Errorf("mailer: send: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailer: send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used when
// no mail API key is configured.
type LogSender struct{}

// Send logs the message and reports success.
func (LogSender) Send(_ context.Context, to, subject, text, _ string) error {
	log.WithFields(log.Fields{"to": to, "subject": subject}).Infof("mail (log-only): %s", text)
	return nil
}
