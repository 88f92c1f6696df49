// Package notify posts render summaries to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event is the JSON body sent after each render.
type Event struct {
	Event      string    `json:"event"`
	SessionID  string    `json:"session_id"`
	Dialect    string    `json:"dialect"`
	Mode       string    `json:"mode"`
	Slides     int       `json:"slides"`
	Bulletin   bool      `json:"bulletin"`
	Filename   string    `json:"filename"`
	WeekName   string    `json:"week_name,omitempty"`
	Date       string    `json:"date,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	RenderedAt time.Time `json:"rendered_at"`
}

// EventRendered names a finished render.
const EventRendered = "render.completed"

// Client communicates with the webhook endpoint.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewClient(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts ev. Any 2xx status is success.
func (c *Client) Send(ctx context.Context, ev Event) error {
	if ev.Event == "" {
		ev.Event = EventRendered
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post webhook: status %d: %s", resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
