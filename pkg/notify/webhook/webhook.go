// Package webhook implements notify.Notifier by POSTing a JSON payload to a
// configured HTTP endpoint. The channel string is appended to the base URL
// path, so one endpoint can fan messages out per owner channel.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/recallhq/recall/pkg/notify"
)

// Notifier posts messages to an HTTP endpoint.
type Notifier struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the webhook notifier.
type Config struct {
	// BaseURL is the endpoint messages are POSTed to. Required.
	BaseURL string

	// Timeout bounds one delivery attempt. Defaults to 10s.
	Timeout time.Duration
}

type payload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type response struct {
	MessageID string `json:"message_id,omitempty"`
}

// NewNotifier creates a webhook notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("webhook base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Notifier{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Deliver POSTs the message and treats any non-2xx status as a failed attempt.
func (n *Notifier) Deliver(ctx context.Context, channel, text string) (*notify.Delivery, error) {
	body, err := json.Marshal(payload{Channel: channel, Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling payload: %v", notify.ErrDelivery, err)
	}

	target := n.baseURL + "/" + url.PathEscape(channel)
	req, err := http.NewRequestWithContext(ctx, "POST", target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", notify.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", notify.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: endpoint returned status %d: %s", notify.ErrDelivery, resp.StatusCode, string(raw))
	}

	out := &notify.Delivery{Success: true}
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err == nil {
		out.MessageID = r.MessageID
	}

	return out, nil
}

// Close releases resources held by the notifier.
func (n *Notifier) Close() error {
	return nil
}

var _ notify.Notifier = (*Notifier)(nil)
