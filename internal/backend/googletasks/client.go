// Package googletasks implements the service.Service interface using Google Tasks API.
// Every task list is a card and every task in it is a card task.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/service"
)

const (
	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// fetchConcurrency bounds the task lists fetched in parallel.
	fetchConcurrency = 4

	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Create HTTP client with a token source that auto-refreshes
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	if cfg.Settings.Timeout > 0 {
		c.timeout = cfg.Settings.Timeout
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, timeout: APITimeout}, nil
}

// FetchBoard implements service.Service. Lists keep their API order; their
// tasks are fetched concurrently.
func (c *Client) FetchBoard(ctx context.Context) (board.Board, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lists []*tasks.TaskList
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		lists = append(lists, resp.Items...)
		return nil
	})
	if err != nil {
		return board.Board{}, wrapError("fetch board", err)
	}

	cards := make([]board.Card, len(lists))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, list := range lists {
		g.Go(func() error {
			items, err := c.listTasks(gctx, list.Id)
			if err != nil {
				return wrapError("fetch board", err)
			}
			cards[i] = board.Card{
				ID:     board.ID(list.Id),
				Title:  list.Title,
				Status: cardStatus(items),
				Tasks:  items,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return board.Board{}, err
	}
	return board.Board{Cards: cards}, nil
}

// listTasks returns every task of a list, completed ones included, in
// position order.
func (c *Client) listTasks(ctx context.Context, listID string) ([]board.Task, error) {
	var items []*tasks.Task
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			items = append(items, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	out := make([]board.Task, 0, len(items))
	for _, t := range items {
		out = append(out, toTask(t))
	}
	return out, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, cardID board.ID, task board.Task) (board.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(cardID.String(), &tasks.Task{
		Title:  task.Name,
		Status: status(task.Done),
	}).Context(ctx).Do()
	if err != nil {
		return board.Task{}, wrapError("create task", err)
	}
	return toTask(created), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, cardID, taskID board.ID) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.svc.Tasks.Delete(cardID.String(), taskID.String()).Context(ctx).Do()
	if err != nil {
		return wrapError("delete task", err)
	}
	return nil
}

// SetTaskDone implements service.Service.
func (c *Client) SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	patch := &tasks.Task{Status: status(done)}
	if !done {
		// Reopening needs the completion timestamp cleared explicitly.
		patch.NullFields = []string{"Completed"}
	}
	_, err := c.svc.Tasks.Patch(cardID.String(), taskID.String(), patch).Context(ctx).Do()
	if err != nil {
		return wrapError("set task done", err)
	}
	return nil
}

func toTask(t *tasks.Task) board.Task {
	return board.Task{ID: board.ID(t.Id), Name: t.Title, Done: t.Status == statusCompleted}
}

func status(done bool) string {
	if done {
		return statusCompleted
	}
	return statusNeedsAction
}

// cardStatus derives a column from task progress.
func cardStatus(items []board.Task) board.Status {
	done := 0
	for _, t := range items {
		if t.Done {
			done++
		}
	}
	switch {
	case done == 0:
		return board.StatusTodo
	case done == len(items):
		return board.StatusDone
	default:
		return board.StatusInProgress
	}
}

// wrapError maps API errors onto the service error types.
func wrapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Message
		if gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden {
			body = "token expired or revoked (run: kanban login)"
		}
		return &service.RemoteError{Op: op, Status: gerr.Code, Body: body}
	}
	return &service.TransportError{Op: op, Err: err}
}
