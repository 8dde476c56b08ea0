package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Publisher notifies the messaging service that a note became visible to a
// patient. Delivery failures never surface to the caller; the share itself
// has already committed.
type Publisher interface {
	PublishNoteShared(ctx context.Context, n SharedNotification)
}

// SignPayload computes the hex-encoded HMAC-SHA256 of payload.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a payload against a hex-encoded HMAC-SHA256 signature.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PublisherOption configures a WebhookPublisher.
type PublisherOption func(*WebhookPublisher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) PublisherOption {
	return func(p *WebhookPublisher) { p.httpClient = c }
}

// WithMaxRetries sets the number of delivery attempts.
func WithMaxRetries(n int) PublisherOption {
	return func(p *WebhookPublisher) { p.maxRetries = n }
}

// WithRetryDelay sets the pause between delivery attempts.
func WithRetryDelay(d time.Duration) PublisherOption {
	return func(p *WebhookPublisher) { p.retryDelay = d }
}

// WebhookPublisher POSTs signed JSON notifications to a single configured
// endpoint, retrying a bounded number of times.
type WebhookPublisher struct {
	url        string
	secret     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewWebhookPublisher creates a WebhookPublisher with sensible defaults.
func NewWebhookPublisher(url, secret string, opts ...PublisherOption) *WebhookPublisher {
	p := &WebhookPublisher{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *WebhookPublisher) PublishNoteShared(ctx context.Context, n SharedNotification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	n.EventType = TypeNoteShared

	payload, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal note_shared notification")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
		}
		if lastErr = p.deliver(ctx, payload, n.Timestamp); lastErr == nil {
			log.Info().
				Str("consultation_id", n.ConsultationID.String()).
				Str("patient_view_id", n.PatientViewID.String()).
				Int("attempt", attempt).
				Msg("note_shared notification delivered")
			return
		}
		log.Warn().Err(lastErr).
			Str("consultation_id", n.ConsultationID.String()).
			Int("attempt", attempt).
			Msg("note_shared notification delivery failed")
	}
}

func (p *WebhookPublisher) deliver(ctx context.Context, payload []byte, ts time.Time) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", "sha256="+SignPayload(payload, p.secret))
	req.Header.Set("X-Webhook-Timestamp", ts.UTC().Format(time.RFC3339))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain at most 1KB so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return nil
}

// NopPublisher is used when no messaging webhook is configured.
type NopPublisher struct{}

func (NopPublisher) PublishNoteShared(context.Context, SharedNotification) {}
