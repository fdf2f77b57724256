// Package kanbanapi implements the service.Service interface over the board
// HTTP API (GET /cards and the per-task endpoints below it).
package kanbanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/service"
)

const (
	// DefaultTimeout bounds each API call when the settings carry none.
	DefaultTimeout = 5 * time.Second

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 512
)

// Client implements service.Service against a board API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration

	// rawAuth is sent verbatim as the Authorization header when set.
	rawAuth string
}

// New creates a client from settings. The credential, when set, is attached
// to every request as "<CredentialScheme> <Credential>", or as the bare
// credential when CredentialScheme is empty.
func New(s config.Settings) (*Client, error) {
	httpClient := &http.Client{}
	if s.Credential != "" && s.CredentialScheme != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: s.Credential,
			TokenType:   s.CredentialScheme,
		})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	c, err := NewWithHTTPClient(s.BaseURL, httpClient, s.Timeout)
	if err != nil {
		return nil, err
	}
	if s.CredentialScheme == "" {
		c.rawAuth = s.Credential
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: u, http: httpClient, timeout: timeout}, nil
}

type taskRequest struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type doneRequest struct {
	Done bool `json:"done"`
}

// FetchBoard implements service.Service.
func (c *Client) FetchBoard(ctx context.Context) (board.Board, error) {
	var b board.Board
	if err := c.do(ctx, "fetch board", http.MethodGet, c.baseURL.JoinPath("cards"), nil, &b); err != nil {
		return board.Board{}, err
	}
	return b, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, cardID board.ID, task board.Task) (board.Task, error) {
	var created board.Task
	u := c.baseURL.JoinPath("cards", cardID.String(), "tasks")
	req := taskRequest{Name: task.Name, Done: task.Done}
	if err := c.do(ctx, "create task", http.MethodPost, u, req, &created); err != nil {
		return board.Task{}, err
	}
	return created, nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, cardID, taskID board.ID) error {
	u := c.baseURL.JoinPath("cards", cardID.String(), "tasks", taskID.String())
	return c.do(ctx, "delete task", http.MethodDelete, u, nil, nil)
}

// SetTaskDone implements service.Service.
func (c *Client) SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) error {
	u := c.baseURL.JoinPath("cards", cardID.String(), "tasks", taskID.String())
	return c.do(ctx, "set task done", http.MethodPut, u, doneRequest{Done: done}, nil)
}

// do sends one JSON request and decodes the response into out when out is
// non-nil. Failures are *service.TransportError, *service.RemoteError or wrap
// service.ErrMalformed.
func (c *Client) do(ctx context.Context, op, method string, u *url.URL, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.rawAuth != "" {
		req.Header.Set("Authorization", c.rawAuth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &service.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &service.RemoteError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return &service.TransportError{Op: op, Err: ctx.Err()}
		}
		return fmt.Errorf("%s: %w: %v", op, service.ErrMalformed, err)
	}
	return nil
}
