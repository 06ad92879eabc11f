package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

// Message is a single transactional email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer sends transactional email. Delivery is best effort outside every
// consistency boundary; callers decide how failures propagate.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const sendTimeout = 10 * time.Second

// HTTPMailer posts messages to a JSON transactional-mail API.
type HTTPMailer struct {
	apiURL      string
	apiKey      string
	defaultFrom string
	client      *http.Client
}

// NewHTTP builds the API-backed mailer.
func NewHTTP(cfg config.MailerConfig) (*HTTPMailer, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("mailer api url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer api key is required")
	}
	return &HTTPMailer{
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		defaultFrom: cfg.DefaultFrom,
		client:      &http.Client{Timeout: sendTimeout},
	}, nil
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}
	if msg.From == "" {
		msg.From = m.defaultFrom
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail api responded %d", resp.StatusCode)
	}
	return nil
}

// LogMailer logs instead of sending; used in dev when no API key is set.
type LogMailer struct {
	logg *logger.Logger
}

// NewLog builds the dev mailer.
func NewLog(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		m.logg.Info(ctx, "mail.skipped (no mailer configured)")
	}
	return nil
}
