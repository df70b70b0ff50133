package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

const slackTimeout = 10 * time.Second

// Slack posts messages to a Slack-compatible incoming webhook.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlack builds a Slack sink for the given webhook URL.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: slackTimeout},
	}
}

// Name implements Sink.
func (s *Slack) Name() string { return "slack" }

// Send posts the message as a webhook payload. Transient delivery failures
// are retried with a short backoff to ride out API hiccups.
func (s *Slack) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}
	return retry.Do(func() error {
		return s.post(ctx, payload)
	}, retry.Attempts(3), retry.Delay(1*time.Second))
}

func (s *Slack) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
