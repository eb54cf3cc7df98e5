// Package notify posts the lottery result to an optional webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"tools.zach/dev/lottery/internal/lottery"
)

// httpClient is a lazily-initialized retryablehttp client shared by every
// webhook. Use getHTTPClient() to access it.
var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 2
		httpClient.HTTPClient.Timeout = 10 * time.Second
		httpClient.Logger = nil // suppress retryablehttp's default logging
	})
	return httpClient
}

// Payload is the JSON body sent to the webhook.
type Payload struct {
	Winner       string    `json:"winner"`
	Participants int       `json:"participants"`
	DrawnAt      time.Time `json:"drawn_at"`
}

// Webhook delivers results to a single URL.
type Webhook struct {
	URL    string
	client *retryablehttp.Client
}

// New returns a webhook for url, or nil when url is empty.
func New(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{URL: url, client: getHTTPClient()}
}

// Send posts w as JSON. A nil Webhook is a no-op. Any non-2xx response is an
// error.
func (h *Webhook) Send(ctx context.Context, w lottery.Winner) error {
	if h == nil {
		return nil
	}

	body, err := json.Marshal(Payload{
		Winner:       w.ID,
		Participants: w.Participants,
		DrawnAt:      w.DrawnAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("POST %s: %w", h.URL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", h.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("POST %s: status %d", h.URL, resp.StatusCode)
	}
	return nil
}
