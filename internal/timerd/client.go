package timerd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

// Client talks to a running timer daemon. It implements timer.Controller.
type Client struct {
	base string
	http *http.Client
}

var _ timer.Controller = (*Client)(nil)

// NewClient returns a client for the daemon listening on the unix socket at
// path.
func NewClient(path string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}
	return newClient("http://timerd", transport)
}

func newClient(base string, transport http.RoundTripper) *Client {
	return &Client{
		base: base,
		http: &http.Client{Transport: transport, Timeout: 5 * time.Second},
	}
}

// do sends body as JSON and decodes a successful response into out. Problem
// responses come back as errors wrapping the matching domain sentinel.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("timerd %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var p Problem
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Status == 0 {
			return fmt.Errorf("timerd %s %s: status %d", method, path, resp.StatusCode)
		}
		return problemError(&p)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping reports whether a daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	var h HealthResponse
	return c.do(ctx, http.MethodGet, "/v1/health", nil, &h)
}

func (c *Client) State(ctx context.Context) (timer.State, error) {
	var st timer.State
	err := c.do(ctx, http.MethodGet, "/v1/timer", nil, &st)
	return st, err
}

func (c *Client) Start(ctx context.Context, taskID, taskTitle string) (timer.State, error) {
	var st timer.State
	err := c.do(ctx, http.MethodPost, "/v1/timer/start", StartRequest{TaskID: taskID, TaskTitle: taskTitle}, &st)
	return st, err
}

func (c *Client) Stop(ctx context.Context) (timer.State, error) {
	var st timer.State
	err := c.do(ctx, http.MethodPost, "/v1/timer/stop", nil, &st)
	return st, err
}

func (c *Client) Reset(ctx context.Context) (timer.State, error) {
	var st timer.State
	err := c.do(ctx, http.MethodPost, "/v1/timer/reset", nil, &st)
	return st, err
}

func (c *Client) Finish(ctx context.Context) (planner.Session, error) {
	var s planner.Session
	err := c.do(ctx, http.MethodPost, "/v1/timer/finish", nil, &s)
	return s, err
}

func (c *Client) SaveSession(ctx context.Context, taskID, taskTitle string, d time.Duration) (planner.Session, error) {
	var s planner.Session
	req := SessionRequest{TaskID: taskID, TaskTitle: taskTitle, DurationMs: d.Milliseconds()}
	err := c.do(ctx, http.MethodPost, "/v1/sessions", req, &s)
	return s, err
}
