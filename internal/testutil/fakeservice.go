// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"kanban/internal/board"
	"kanban/internal/service"
)

// ErrNotFound is returned when a card or task does not exist on the fake.
var ErrNotFound = errors.New("not found")

// Call records one remote request received by FakeService.
type Call struct {
	Op     string
	CardID board.ID
	TaskID board.ID
	Task   board.Task
	Done   bool
}

// FakeService is an in-memory implementation of service.Service for testing.
// It persists accepted mutations to its own copy of the board.
type FakeService struct {
	mu     sync.Mutex
	cards  []board.Card
	nextID int
	calls  []Call

	// Error injection for testing
	FetchBoardErr  error
	CreateTaskErr  error
	DeleteTaskErr  error
	SetTaskDoneErr error

	// Hold parks calls of an op ("create", "delete", "set_done") until a
	// value is received from the channel or the call's context ends.
	// Set it before the service is used.
	Hold map[string]chan struct{}
}

// NewFakeService creates a FakeService holding a copy of initial.
// Server ids for created tasks start at 100.
func NewFakeService(initial board.Board) *FakeService {
	f := &FakeService{nextID: 100}
	for _, c := range initial.Cards {
		c.Tasks = cloneTasks(c.Tasks)
		f.cards = append(f.cards, c)
	}
	return f
}

// Rejected builds the error a remote returns for a non-success status.
func Rejected(op string, status int) error {
	return &service.RemoteError{Op: op, Status: status}
}

// Calls returns the recorded requests in arrival order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Persisted returns the fake's own view of the board.
func (f *FakeService) Persisted() board.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// FetchBoard implements service.Service.
func (f *FakeService) FetchBoard(ctx context.Context) (board.Board, error) {
	f.record(Call{Op: "fetch"})
	if f.FetchBoardErr != nil {
		return board.Board{}, f.FetchBoardErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, cardID board.ID, task board.Task) (board.Task, error) {
	f.record(Call{Op: "create", CardID: cardID, Task: task, Done: task.Done})
	if err := f.wait(ctx, "create"); err != nil {
		return board.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return board.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.cardIndex(cardID)
	if i < 0 {
		return board.Task{}, ErrNotFound
	}
	created := board.Task{ID: board.ID(strconv.Itoa(f.nextID)), Name: task.Name, Done: task.Done}
	f.nextID++
	f.cards[i].Tasks = append(f.cards[i].Tasks, created)
	return created, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, cardID, taskID board.ID) error {
	f.record(Call{Op: "delete", CardID: cardID, TaskID: taskID})
	if err := f.wait(ctx, "delete"); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i, j := f.taskIndex(cardID, taskID)
	if j < 0 {
		return ErrNotFound
	}
	tasks := f.cards[i].Tasks
	f.cards[i].Tasks = append(tasks[:j:j], tasks[j+1:]...)
	return nil
}

// SetTaskDone implements service.Service.
func (f *FakeService) SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) error {
	f.record(Call{Op: "set_done", CardID: cardID, TaskID: taskID, Done: done})
	if err := f.wait(ctx, "set_done"); err != nil {
		return err
	}
	if f.SetTaskDoneErr != nil {
		return f.SetTaskDoneErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i, j := f.taskIndex(cardID, taskID)
	if j < 0 {
		return ErrNotFound
	}
	f.cards[i].Tasks[j].Done = done
	return nil
}

func (f *FakeService) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *FakeService) wait(ctx context.Context, op string) error {
	gate, ok := f.Hold[op]
	if !ok {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &service.TransportError{Op: "fake", Err: ctx.Err()}
	}
}

func (f *FakeService) snapshot() board.Board {
	cards := make([]board.Card, len(f.cards))
	for i, c := range f.cards {
		c.Tasks = cloneTasks(c.Tasks)
		cards[i] = c
	}
	return board.Board{Cards: cards}
}

func (f *FakeService) cardIndex(id board.ID) int {
	for i, c := range f.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeService) taskIndex(cardID, taskID board.ID) (int, int) {
	i := f.cardIndex(cardID)
	if i < 0 {
		return -1, -1
	}
	for j, t := range f.cards[i].Tasks {
		if t.ID == taskID {
			return i, j
		}
	}
	return i, -1
}

func cloneTasks(tasks []board.Task) []board.Task {
	if tasks == nil {
		return nil
	}
	out := make([]board.Task, len(tasks))
	copy(out, tasks)
	return out
}
