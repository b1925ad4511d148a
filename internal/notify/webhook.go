// Package notify pings the optional report-refresh webhook after a
// successful upload (an Apps-Script-style GET endpoint).
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Webhook calls a fixed URL with a GET request.
type Webhook struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewWebhook builds a webhook notifier. An empty URL yields a notifier
// whose Notify is a no-op.
func NewWebhook(url string, timeout time.Duration, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify issues the GET ping. Non-200 responses are errors; the caller
// decides whether that fails the run (it does not).
func (w *Webhook) Notify(ctx context.Context) error {
	if w.url == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	w.logger.Info("webhook notified", zap.String("url", w.url))
	return nil
}
