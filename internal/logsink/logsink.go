// Package logsink reports significant service events to a remote evaluation
// service. Notifications are strictly best-effort: they run detached from the
// request that produced them and their failures are only logged locally.
package logsink

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Event levels accepted by the evaluation service.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

const defaultTimeout = 5 * time.Second

// event is the notification payload expected by the evaluation service.
type event struct {
	Stack   string `json:"stack"`
	Level   string `json:"level"`
	Package string `json:"package"`
	Message string `json:"message"`
}

// Client posts events to the evaluation service. A nil client discards
// all notifications, so callers never need to guard against it.
type Client struct {
	url    string
	stack  string
	client *http.Client
	logger *slog.Logger
}

// New creates a notification client. It returns nil when rawURL is empty,
// which disables the sink entirely.
func New(rawURL, stack string, timeout time.Duration, logger *slog.Logger) *Client {
	if rawURL == "" {
		return nil
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		url:    rawURL,
		stack:  stack,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify sends an event without waiting for delivery. The outcome of the
// notification never affects the caller.
func (c *Client) Notify(level, pkg, msg string) {
	if c == nil {
		return
	}

	go c.send(event{
		Stack:   c.stack,
		Level:   level,
		Package: pkg,
		Message: msg,
	})
}

func (c *Client) send(ev event) {
	body, err := json.Marshal(ev)
	if err != nil {
		c.logger.Debug("log sink: failed to marshal event", slog.Any("err", err))
		return
	}

	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("log sink: failed to deliver event", slog.Any("err", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Debug("log sink: event rejected", slog.Int("status", resp.StatusCode))
	}
}
