// Package botapi sends messages to the chat bot gateway.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultRetryDelay = 500 * time.Millisecond

// Client posts {chat_id, text} messages to the gateway's send endpoint.
type Client struct {
	sendURL    string
	httpClient *http.Client
	retryDelay time.Duration
	log        *slog.Logger
}

// NewClient creates a Client for sendURL with the given request timeout.
func NewClient(logger *slog.Logger, sendURL string, timeout time.Duration) *Client {
	return &Client{
		sendURL:    sendURL,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
		log:        logger.With("adapter", "botapi"),
	}
}

type sendRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage delivers text to chatID. A 5xx or network error is retried
// once; any other non-2xx status is an error.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("botapi: encode: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body, chatID)
	if err != nil {
		c.log.ErrorContext(ctx, "botapi request failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		return fmt.Errorf("botapi: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("botapi: unexpected status %d", resp.StatusCode)
	}

	c.log.DebugContext(ctx, "botapi message sent", slog.Int64("chat_id", chatID))
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) doWithRetry(ctx context.Context, body []byte, chatID int64) (*http.Response, error) {
	resp, err := c.post(ctx, body)

	shouldRetry := err != nil || resp.StatusCode >= 500
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
		resp.Body.Close()
	}
	c.log.WarnContext(ctx, "botapi retry", slog.Int64("chat_id", chatID), slog.String("reason", reason))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}

	return c.post(ctx, body)
}
