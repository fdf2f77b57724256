package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/server"
)

func newAPI(t *testing.T, opts server.Options) (http.Handler, *server.MemoryRepository) {
	t.Helper()
	repo := server.NewMemoryRepository(board.Sample())
	if opts.Logger == nil {
		opts.Logger, _ = logtest.NewNullLogger()
	}
	return server.New(repo, opts), repo
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListCards(t *testing.T) {
	h, _ := newAPI(t, server.Options{})

	rec := do(t, h, http.MethodGet, "/cards", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got board.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, board.Sample(), got)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["), "bare array on the wire")
}

func TestAddTask(t *testing.T) {
	h, repo := newAPI(t, server.Options{})

	rec := do(t, h, http.MethodPost, "/cards/1/tasks", `{"id": 1700000000000, "name": " read chapter 6 ", "done": false}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id": 4, "name": "read chapter 6", "done": false}`, rec.Body.String())
	b, err := repo.Cards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []board.Task{{ID: "4", Name: "read chapter 6"}}, b.Cards[0].Tasks)
}

func TestAddTask_Invalid(t *testing.T) {
	h, _ := newAPI(t, server.Options{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/cards/1/tasks", `{"name": "  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/cards/1/tasks", `{"name": `).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/cards/9/tasks", `{"name": "x"}`).Code)
}

func TestDeleteTask(t *testing.T) {
	h, repo := newAPI(t, server.Options{})

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/cards/2/tasks/2", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/cards/2/tasks/2", "").Code)

	b, err := repo.Cards(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Cards[1].Tasks, 2)
	assert.Equal(t, board.ID("1"), b.Cards[1].Tasks[0].ID)
	assert.Equal(t, board.ID("3"), b.Cards[1].Tasks[1].ID)
}

func TestSetTaskDone(t *testing.T) {
	h, _ := newAPI(t, server.Options{})

	rec := do(t, h, http.MethodPut, "/cards/2/tasks/2", `{"done": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": 2, "name": "The kanban Example", "done": true}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/cards/2/tasks/2", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/cards/2/tasks/99", `{"done": true}`).Code)
}

func TestCredential(t *testing.T) {
	h, _ := newAPI(t, server.Options{Credential: "react-react"})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/cards", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/cards", "", "Authorization", "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/cards", "", "Authorization", "react-react").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/cards", "", "Authorization", "Bearer react-react").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestFailRate(t *testing.T) {
	h, repo := newAPI(t, server.Options{FailRate: 0.5, Rand: func() float64 { return 0.1 }})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/cards", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPut, "/cards/2/tasks/2", `{"done": true}`).Code)

	b, err := repo.Cards(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Cards[1].Tasks[1].Done, "rejected request never reached the repository")

	h, _ = newAPI(t, server.Options{FailRate: 0.5, Rand: func() float64 { return 0.9 }})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/cards/2/tasks/2", `{"done": true}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, _ := newAPI(t, server.Options{Registry: reg})

	do(t, h, http.MethodGet, "/cards", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kanban_server_requests_total{method="GET",route="/cards",status="200"} 1`)
}
