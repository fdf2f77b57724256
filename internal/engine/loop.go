package engine

import (
	"context"
	"errors"

	"kanban/internal/board"
)

// ErrLoopStopped is delivered when the loop exits before an intent finishes.
var ErrLoopStopped = errors.New("loop stopped")

// Intent starts a mutation against the engine.
type Intent func(e *Engine) (*Mutation, error)

// AddTaskIntent wraps Engine.AddTask.
func AddTaskIntent(cardID board.ID, name string) Intent {
	return func(e *Engine) (*Mutation, error) { return e.AddTask(cardID, name) }
}

// DeleteTaskIntent wraps Engine.DeleteTask.
func DeleteTaskIntent(cardID, taskID board.ID, taskIndex int) Intent {
	return func(e *Engine) (*Mutation, error) { return e.DeleteTask(cardID, taskID, taskIndex) }
}

// ToggleTaskIntent wraps Engine.ToggleTask.
func ToggleTaskIntent(cardID, taskID board.ID, taskIndex int) Intent {
	return func(e *Engine) (*Mutation, error) { return e.ToggleTask(cardID, taskID, taskIndex) }
}

// Result is the terminal state of a submitted intent. Mutation is nil when
// the intent was aborted before anything was committed.
//
// Err is ErrLoopStopped with a non-nil Mutation when the loop exited while
// the remote call was in flight. That mutation was never settled and its
// optimistic change is still in the store.
type Result struct {
	Mutation *Mutation
	Err      error
}

// Loop runs every store access of an engine on one goroutine. Remote calls
// run on their own goroutines and hand their outcome back to the loop.
type Loop struct {
	engine *Engine
	inbox  chan func()
	done   chan struct{}
}

// NewLoop creates a loop for e. Nothing runs until Run is called.
func NewLoop(e *Engine) *Loop {
	return &Loop{
		engine: e,
		inbox:  make(chan func()),
		done:   make(chan struct{}),
	}
}

// Run processes intents and settlements until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case fn := <-l.inbox:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit hands intent to the loop and returns a channel that receives exactly
// one Result. The optimistic commit has happened by the time the loop moves
// on to its next message; the result arrives after settlement.
func (l *Loop) Submit(ctx context.Context, intent Intent) <-chan Result {
	res := make(chan Result, 1)
	l.post(res, nil, func() {
		m, err := intent(l.engine)
		if err != nil {
			res <- Result{Err: err}
			return
		}
		go func() {
			o := m.Call(ctx)
			l.post(res, m, func() {
				res <- Result{Mutation: m, Err: m.Settle(o)}
			})
		}()
	})
	return res
}

// post queues fn on the loop. If the loop has exited, res receives
// ErrLoopStopped along with m, the mutation fn would have settled.
func (l *Loop) post(res chan<- Result, m *Mutation, fn func()) {
	select {
	case l.inbox <- fn:
	case <-l.done:
		res <- Result{Mutation: m, Err: ErrLoopStopped}
	}
}
