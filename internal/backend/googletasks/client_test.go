package googletasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"kanban/internal/backend/googletasks"
	"kanban/internal/board"
	"kanban/internal/service"
)

// fakeTasksAPI serves the subset of the Google Tasks REST API the client uses.
type fakeTasksAPI struct {
	mu      sync.Mutex
	lists   []map[string]any
	tasks   map[string][]map[string]any
	bodies  []string
	methods []string
	fail    int
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	f.bodies = append(f.bodies, string(body))
	f.methods = append(f.methods, r.Method+" "+r.URL.Path)

	if f.fail != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.fail)
		_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "nope"}}`, f.fail)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/tasks/v1/")
	switch {
	case path == "users/@me/lists":
		writeJSON(w, map[string]any{"kind": "tasks#taskLists", "items": f.lists})
	case strings.HasPrefix(path, "lists/"):
		parts := strings.Split(strings.TrimPrefix(path, "lists/"), "/")
		switch {
		case r.Method == http.MethodGet:
			writeJSON(w, map[string]any{"kind": "tasks#tasks", "items": f.tasks[parts[0]]})
		case r.Method == http.MethodPost:
			var in map[string]any
			_ = json.Unmarshal(body, &in)
			in["id"] = "new-task"
			writeJSON(w, in)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPatch:
			var in map[string]any
			_ = json.Unmarshal(body, &in)
			in["id"] = parts[2]
			writeJSON(w, in)
		}
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeTasksAPI) requests() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...), append([]string(nil), f.bodies...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, api *fakeTasksAPI) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestFetchBoard(t *testing.T) {
	api := &fakeTasksAPI{
		lists: []map[string]any{
			{"id": "L1", "title": "Inbox"},
			{"id": "L2", "title": "Work"},
			{"id": "L3", "title": "Empty"},
		},
		tasks: map[string][]map[string]any{
			"L1": {
				{"id": "b", "title": "second", "position": "00000000000000000001", "status": "completed"},
				{"id": "a", "title": "first", "position": "00000000000000000000", "status": "needsAction"},
			},
			"L2": {
				{"id": "c", "title": "ship", "position": "00000000000000000000", "status": "completed"},
			},
		},
	}
	c := newClient(t, api)

	b, err := c.FetchBoard(context.Background())
	require.NoError(t, err)

	require.Len(t, b.Cards, 3)
	assert.Equal(t, board.Card{
		ID:     "L1",
		Title:  "Inbox",
		Status: board.StatusInProgress,
		Tasks: []board.Task{
			{ID: "a", Name: "first"},
			{ID: "b", Name: "second", Done: true},
		},
	}, b.Cards[0])
	assert.Equal(t, board.StatusDone, b.Cards[1].Status)
	assert.Equal(t, board.StatusTodo, b.Cards[2].Status)
	assert.NotNil(t, b.Cards[2].Tasks)
	assert.Empty(t, b.Cards[2].Tasks)
}

func TestCreateTask(t *testing.T) {
	api := &fakeTasksAPI{}
	c := newClient(t, api)

	created, err := c.CreateTask(context.Background(), "L1", board.Task{ID: "tmp-1", Name: "write tests"})
	require.NoError(t, err)

	assert.Equal(t, board.Task{ID: "new-task", Name: "write tests"}, created)
	methods, bodies := api.requests()
	assert.Equal(t, "POST /tasks/v1/lists/L1/tasks", methods[0])
	assert.JSONEq(t, `{"title": "write tests", "status": "needsAction"}`, bodies[0])
}

func TestSetTaskDone(t *testing.T) {
	api := &fakeTasksAPI{}
	c := newClient(t, api)

	require.NoError(t, c.SetTaskDone(context.Background(), "L1", "a", true))
	require.NoError(t, c.SetTaskDone(context.Background(), "L1", "a", false))
	methods, bodies := api.requests()

	assert.Equal(t, "PATCH /tasks/v1/lists/L1/tasks/a", methods[0])
	assert.JSONEq(t, `{"status": "completed"}`, bodies[0])
	assert.JSONEq(t, `{"status": "needsAction", "completed": null}`, bodies[1])
}

func TestDeleteTask(t *testing.T) {
	api := &fakeTasksAPI{}
	c := newClient(t, api)

	require.NoError(t, c.DeleteTask(context.Background(), "L1", "a"))
	methods, _ := api.requests()
	assert.Equal(t, "DELETE /tasks/v1/lists/L1/tasks/a", methods[0])
}

func TestErrors(t *testing.T) {
	t.Run("api error is a rejection", func(t *testing.T) {
		api := &fakeTasksAPI{fail: http.StatusNotFound}
		c := newClient(t, api)

		err := c.DeleteTask(context.Background(), "L1", "a")

		var remote *service.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusNotFound, remote.Status)
		assert.Equal(t, "nope", remote.Body)
	})

	t.Run("auth failure asks for login", func(t *testing.T) {
		api := &fakeTasksAPI{fail: http.StatusUnauthorized}
		c := newClient(t, api)

		_, err := c.FetchBoard(context.Background())

		assert.ErrorIs(t, err, service.ErrRejected)
		assert.Contains(t, err.Error(), "kanban login")
	})

	t.Run("unreachable server is a transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c, err := googletasks.NewWithHTTPClient(context.Background(), http.DefaultClient, option.WithEndpoint(srv.URL+"/"))
		require.NoError(t, err)

		err = c.SetTaskDone(context.Background(), "L1", "a", true)
		assert.ErrorIs(t, err, service.ErrTransport)
	})
}
