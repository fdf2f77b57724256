package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/engine"
	"kanban/internal/service"
	"kanban/internal/store"
	"kanban/internal/testutil"
)

func seqIDs() board.IDSource {
	n := 0
	return board.IDFunc(func() board.ID {
		n++
		return board.ID(fmt.Sprintf("tmp-%d", n))
	})
}

func oneCard(tasks ...board.Task) board.Board {
	if tasks == nil {
		tasks = []board.Task{}
	}
	return board.Board{Cards: []board.Card{
		{ID: "C1", Title: "first", Status: board.StatusTodo, Tasks: tasks},
	}}
}

type fixture struct {
	engine *engine.Engine
	store  *store.Store
	remote *testutil.FakeService
	hook   *logtest.Hook
}

func newFixture(t *testing.T, initial board.Board, opts ...engine.Option) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	st := store.New(initial)
	remote := testutil.NewFakeService(initial)
	opts = append([]engine.Option{engine.WithLogger(logger), engine.WithIDSource(seqIDs())}, opts...)
	return &fixture{
		engine: engine.New(st, remote, opts...),
		store:  st,
		remote: remote,
		hook:   hook,
	}
}

func tasksOf(t *testing.T, b board.Board, cardID board.ID) []board.Task {
	t.Helper()
	c, ok := b.Card(cardID)
	require.True(t, ok, "card %s missing", cardID)
	return c.Tasks
}

func TestAddTask_Success(t *testing.T) {
	f := newFixture(t, oneCard())

	m, err := f.engine.AddTask("C1", "x")
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseOptimistic, m.Phase())
	assert.Equal(t, []board.Task{{ID: "tmp-1", Name: "x"}}, tasksOf(t, f.store.Current(), "C1"))

	err = m.Settle(engine.Outcome{Task: board.Task{ID: "42", Name: "x"}})
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseCommitted, m.Phase())
	assert.Equal(t, []board.Task{{ID: "42", Name: "x"}}, tasksOf(t, f.store.Current(), "C1"))
}

func TestAddTask_SendsNameAndDoneOnly(t *testing.T) {
	f := newFixture(t, oneCard())

	m, err := f.engine.AddTask("C1", "x")
	require.NoError(t, err)
	require.NoError(t, f.engine.Do(context.Background(), m))

	calls := f.remote.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].Op)
	assert.Equal(t, board.Task{Name: "x"}, calls[0].Task)
	assert.Equal(t, []board.Task{{ID: "100", Name: "x"}}, tasksOf(t, f.store.Current(), "C1"))
}

func TestAddTask_FailureRevertsFully(t *testing.T) {
	initial := oneCard()
	f := newFixture(t, initial)
	f.remote.CreateTaskErr = testutil.Rejected("create task", 500)

	m, err := f.engine.AddTask("C1", "x")
	require.NoError(t, err)
	err = f.engine.Do(context.Background(), m)

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrRejected)
	assert.Equal(t, engine.PhaseRolledBack, m.Phase())
	assert.Equal(t, initial, f.store.Current())
}

func TestAddTask_MissingServerIDRollsBack(t *testing.T) {
	initial := oneCard()
	f := newFixture(t, initial)

	m, err := f.engine.AddTask("C1", "x")
	require.NoError(t, err)
	err = m.Settle(engine.Outcome{Task: board.Task{Name: "x"}})

	assert.ErrorIs(t, err, service.ErrMalformed)
	assert.Equal(t, initial, f.store.Current())
}

func TestAddTask_UnknownCardCommitsNothing(t *testing.T) {
	f := newFixture(t, oneCard())

	m, err := f.engine.AddTask("nope", "x")

	assert.Nil(t, m)
	assert.ErrorIs(t, err, board.ErrNotFound)
	assert.Equal(t, uint64(0), f.store.Version())
	assert.Empty(t, f.remote.Calls())
}

func TestDeleteTask(t *testing.T) {
	t1 := board.Task{ID: "1", Name: "one"}
	t2 := board.Task{ID: "2", Name: "two"}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, oneCard(t1, t2))

		m, err := f.engine.DeleteTask("C1", "2", 1)
		require.NoError(t, err)
		assert.Equal(t, []board.Task{t1}, tasksOf(t, f.store.Current(), "C1"))
		version := f.store.Version()

		require.NoError(t, f.engine.Do(context.Background(), m))
		assert.Equal(t, []board.Task{t1}, tasksOf(t, f.store.Current(), "C1"))
		assert.Equal(t, version, f.store.Version(), "a confirmed delete needs no further write")
		assert.Equal(t, []board.Task{t1}, tasksOf(t, f.remote.Persisted(), "C1"))
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, oneCard(t1, t2))
		f.remote.DeleteTaskErr = testutil.Rejected("delete task", 404)

		m, err := f.engine.DeleteTask("C1", "2", 1)
		require.NoError(t, err)
		err = f.engine.Do(context.Background(), m)

		assert.ErrorIs(t, err, service.ErrRejected)
		assert.Equal(t, []board.Task{t1, t2}, tasksOf(t, f.store.Current(), "C1"))
	})

	t.Run("index out of range", func(t *testing.T) {
		f := newFixture(t, oneCard(t1, t2))

		_, err := f.engine.DeleteTask("C1", "2", 5)

		assert.ErrorIs(t, err, board.ErrTaskNotFound)
		assert.Equal(t, uint64(0), f.store.Version())
		assert.Empty(t, f.remote.Calls())
	})
}

func TestToggleTask(t *testing.T) {
	open := board.Task{ID: "7", Name: "seven"}

	t.Run("success sends the captured value", func(t *testing.T) {
		f := newFixture(t, oneCard(open))

		m, err := f.engine.ToggleTask("C1", "7", 0)
		require.NoError(t, err)
		assert.True(t, m.Done)
		assert.True(t, tasksOf(t, f.store.Current(), "C1")[0].Done)

		require.NoError(t, f.engine.Do(context.Background(), m))

		calls := f.remote.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, testutil.Call{Op: "set_done", CardID: "C1", TaskID: "7", Done: true}, calls[0])
		assert.True(t, tasksOf(t, f.store.Current(), "C1")[0].Done)
	})

	t.Run("failure restores the flag", func(t *testing.T) {
		f := newFixture(t, oneCard(open))
		f.remote.SetTaskDoneErr = &service.TransportError{Op: "set task done", Err: context.DeadlineExceeded}

		m, err := f.engine.ToggleTask("C1", "7", 0)
		require.NoError(t, err)
		err = f.engine.Do(context.Background(), m)

		assert.ErrorIs(t, err, service.ErrTransport)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, true, f.remote.Calls()[0].Done)
		assert.False(t, tasksOf(t, f.store.Current(), "C1")[0].Done)
	})
}

func TestRollbackMatchesPreviousBoard(t *testing.T) {
	initial := oneCard(board.Task{ID: "1", Name: "one"}, board.Task{ID: "2", Name: "two", Done: true})
	failure := testutil.Rejected("remote", 503)

	intents := map[string]func(e *engine.Engine) (*engine.Mutation, error){
		"add":    func(e *engine.Engine) (*engine.Mutation, error) { return e.AddTask("C1", "new") },
		"delete": func(e *engine.Engine) (*engine.Mutation, error) { return e.DeleteTask("C1", "1", 0) },
		"toggle": func(e *engine.Engine) (*engine.Mutation, error) { return e.ToggleTask("C1", "2", 1) },
	}
	for name, intent := range intents {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, initial)
			f.remote.CreateTaskErr = failure
			f.remote.DeleteTaskErr = failure
			f.remote.SetTaskDoneErr = failure

			before, err := json.Marshal(f.store.Current())
			require.NoError(t, err)

			m, err := intent(f.engine)
			require.NoError(t, err)
			require.Error(t, f.engine.Do(context.Background(), m))

			after, err := json.Marshal(f.store.Current())
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after))
			assert.Equal(t, m.Prev(), f.store.Current())
			assert.Equal(t, uint64(2), f.store.Version(), "one optimistic write and one rollback")
		})
	}
}

func TestRollbackDiscardsLaterMutations(t *testing.T) {
	initial := oneCard(board.Task{ID: "1", Name: "one"})
	f := newFixture(t, initial)

	a, err := f.engine.DeleteTask("C1", "1", 0)
	require.NoError(t, err)
	b, err := f.engine.AddTask("C1", "later")
	require.NoError(t, err)

	require.NoError(t, b.Settle(engine.Outcome{Task: board.Task{ID: "42", Name: "later"}}))
	assert.Equal(t, []board.Task{{ID: "42", Name: "later"}}, tasksOf(t, f.store.Current(), "C1"))

	require.Error(t, a.Settle(engine.Outcome{Err: testutil.Rejected("delete task", 500)}))

	// A restores its own snapshot, which predates B.
	assert.Equal(t, initial, f.store.Current())
	assert.Equal(t, engine.PhaseCommitted, b.Phase())
}

func TestSettle_Twice(t *testing.T) {
	f := newFixture(t, oneCard(board.Task{ID: "1", Name: "one"}))

	m, err := f.engine.ToggleTask("C1", "1", 0)
	require.NoError(t, err)
	require.NoError(t, m.Settle(engine.Outcome{}))
	version := f.store.Version()

	err = m.Settle(engine.Outcome{Err: testutil.Rejected("set task done", 500)})
	assert.ErrorIs(t, err, engine.ErrAlreadySettled)
	assert.Equal(t, version, f.store.Version())
	assert.Equal(t, engine.PhaseCommitted, m.Phase())
}

func TestRollbackIsLogged(t *testing.T) {
	f := newFixture(t, oneCard(board.Task{ID: "1", Name: "one"}))
	f.remote.DeleteTaskErr = testutil.Rejected("delete task", 500)

	m, err := f.engine.DeleteTask("C1", "1", 0)
	require.NoError(t, err)
	require.Error(t, f.engine.Do(context.Background(), m))

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "rejected", entry.Data["kind"])
	assert.Equal(t, engine.OpDeleteTask, entry.Data["op"])
	assert.Equal(t, board.ID("1"), entry.Data["task_id"])
}

func TestLoad(t *testing.T) {
	t.Run("success installs the remote board", func(t *testing.T) {
		f := newFixture(t, board.Board{})
		remote := testutil.NewFakeService(board.Sample())
		e := engine.New(f.store, remote, engine.WithLogger(logrus.New()))

		require.NoError(t, e.Load(context.Background()))
		assert.Equal(t, board.Sample(), f.store.Current())
	})

	t.Run("failure leaves the store alone", func(t *testing.T) {
		f := newFixture(t, oneCard())
		f.remote.FetchBoardErr = &service.TransportError{Op: "fetch board", Err: context.Canceled}

		err := f.engine.Load(context.Background())

		assert.ErrorIs(t, err, service.ErrTransport)
		assert.Equal(t, uint64(0), f.store.Version())
		assert.Equal(t, oneCard(), f.store.Current())
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, oneCard(board.Task{ID: "1", Name: "one"}), engine.WithMetrics(engine.NewMetrics(reg)))
	f.remote.DeleteTaskErr = testutil.Rejected("delete task", 500)

	m, err := f.engine.AddTask("C1", "x")
	require.NoError(t, err)
	require.NoError(t, f.engine.Do(context.Background(), m))

	m, err = f.engine.DeleteTask("C1", "1", 0)
	require.NoError(t, err)
	require.Error(t, f.engine.Do(context.Background(), m))

	_, err = f.engine.ToggleTask("C1", "1", 9)
	require.Error(t, err)

	expected := `
# HELP kanban_mutations_total Board mutations by operation and outcome
# TYPE kanban_mutations_total counter
kanban_mutations_total{op="add_task",outcome="committed"} 1
kanban_mutations_total{op="delete_task",outcome="rolled_back"} 1
kanban_mutations_total{op="toggle_task",outcome="aborted"} 1
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "kanban_mutations_total"))
	series, err := promtest.GatherAndCount(reg, "kanban_remote_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}
