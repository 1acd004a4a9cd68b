// Package api is the HTTP client for the riffdeck service. It does no
// retrying and no caching; policy lives with callers (the sync engine
// decides when to poll and when to re-fetch).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// UserHeader carries the caller identity on every request.
const UserHeader = "X-User-UUID"

// Config for the client. UserUUID is injected explicitly; the client never
// reaches into ambient storage for it.
type Config struct {
	BaseURL  string
	UserUUID string
	Timeout  time.Duration

	// RequestsPerSecond caps outbound request rate. Zero means a
	// conservative default; the engine polls every few seconds, so the
	// cap only matters when timing knobs are misconfigured.
	RequestsPerSecond float64
}

type Client struct {
	baseURL  string
	userUUID string
	http     *http.Client
	limiter  *rate.Limiter
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = 10
	}
	return &Client{
		baseURL:  trimSlash(cfg.BaseURL),
		userUUID: cfg.UserUUID,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// Conversation fetches a riff's metadata and full message list.
func (c *Client) Conversation(ctx context.Context, appSlug, riffID string) (*Conversation, error) {
	var conv Conversation
	path := fmt.Sprintf("/projects/%s/conversations/%s", url.PathEscape(appSlug), url.PathEscape(riffID))
	if err := c.call(ctx, http.MethodGet, path, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Events fetches the riff's append-only event log.
func (c *Client) Events(ctx context.Context, appSlug, riffID string) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	path := fmt.Sprintf("/projects/%s/conversations/%s/events", url.PathEscape(appSlug), url.PathEscape(riffID))
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// SendMessage posts a user message and returns the server's echo of it.
func (c *Client) SendMessage(ctx context.Context, appSlug, riffID, text string) (*Message, error) {
	body := map[string]string{"message": text}
	var msg Message
	path := fmt.Sprintf("/projects/%s/conversations/%s/messages", url.PathEscape(appSlug), url.PathEscape(riffID))
	if err := c.call(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Apps lists the caller's projects.
func (c *Client) Apps(ctx context.Context) ([]App, error) {
	var out struct {
		Projects []App `json:"projects"`
	}
	if err := c.call(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// CreateApp creates a project with the given display name.
func (c *Client) CreateApp(ctx context.Context, name string) (*App, error) {
	var app App
	if err := c.call(ctx, http.MethodPost, "/projects", map[string]string{"name": name}, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApp removes a project and everything under it.
func (c *Client) DeleteApp(ctx context.Context, appSlug string) error {
	return c.call(ctx, http.MethodDelete, "/projects/"+url.PathEscape(appSlug), nil, nil)
}

// Riffs lists conversations in a project.
func (c *Client) Riffs(ctx context.Context, appSlug string) ([]Riff, error) {
	var out struct {
		Conversations []Riff `json:"conversations"`
	}
	if err := c.call(ctx, http.MethodGet, "/projects/"+url.PathEscape(appSlug)+"/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// CreateRiff starts a new conversation in a project.
func (c *Client) CreateRiff(ctx context.Context, appSlug, name string) (*Riff, error) {
	var riff Riff
	if err := c.call(ctx, http.MethodPost, "/projects/"+url.PathEscape(appSlug)+"/conversations", map[string]string{"name": name}, &riff); err != nil {
		return nil, err
	}
	return &riff, nil
}

// DeleteRiff removes a conversation.
func (c *Client) DeleteRiff(ctx context.Context, appSlug, riffID string) error {
	path := fmt.Sprintf("/projects/%s/conversations/%s", url.PathEscape(appSlug), url.PathEscape(riffID))
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

// call performs one request. Non-2xx becomes *APIError with the body read
// as text; transport failures become *NetworkError; a 2xx body that fails
// to decode becomes *MalformedResponseError.
func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Cause: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(UserHeader, c.userUUID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &MalformedResponseError{Cause: err}
	}
	return nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
