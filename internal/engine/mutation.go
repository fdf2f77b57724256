package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kanban/internal/board"
	"kanban/internal/service"
)

// Op names a user intent.
type Op string

const (
	OpAddTask    Op = "add_task"
	OpDeleteTask Op = "delete_task"
	OpToggleTask Op = "toggle_task"
)

// Phase is where a mutation stands in its lifecycle:
// Idle -> Optimistic -> Committed | RolledBack.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrAlreadySettled is returned when Settle runs on a finished mutation.
var ErrAlreadySettled = errors.New("mutation already settled")

// Outcome is what the remote call produced.
type Outcome struct {
	// Task is the persisted task returned by CreateTask.
	Task board.Task
	Err  error
}

// Mutation is one optimistic change that has been committed locally and is
// waiting for the remote authority.
//
// Call may run on any goroutine. Settle must run on the goroutine that owns
// the store, and runs at most once.
type Mutation struct {
	Op     Op
	CardID board.ID
	// TaskID is the task addressed by the intent; for OpAddTask it is the
	// provisional id.
	TaskID board.ID
	Index  int
	// Done is the value sent to the remote by OpToggleTask.
	Done bool

	prev  board.Board
	next  board.Board
	phase Phase

	engine    *Engine
	call      func(ctx context.Context) Outcome
	reconcile func(o Outcome) (board.Board, error)
}

// Phase returns the lifecycle phase.
func (m *Mutation) Phase() Phase { return m.phase }

// Prev returns the snapshot taken before the optimistic commit.
func (m *Mutation) Prev() board.Board { return m.prev }

// Next returns the optimistically committed board, or the reconciled one
// once an add has been committed.
func (m *Mutation) Next() board.Board { return m.next }

// Call performs the remote request. It reads only values captured when the
// mutation was created.
func (m *Mutation) Call(ctx context.Context) Outcome {
	start := time.Now()
	o := m.call(ctx)
	m.engine.metrics.observeCall(m.Op, time.Since(start))
	return o
}

// Settle applies the outcome: on success an add is reconciled and
// re-committed, on failure the store goes back to the snapshot taken before
// the optimistic commit. The remote error, if any, is returned after the
// rollback has happened.
func (m *Mutation) Settle(o Outcome) error {
	if m.phase != PhaseOptimistic {
		return ErrAlreadySettled
	}
	e := m.engine

	err := o.Err
	var reconciled board.Board
	if err == nil && m.reconcile != nil {
		reconciled, err = m.reconcile(o)
	}

	if err != nil {
		e.store.Replace(m.prev)
		m.phase = PhaseRolledBack
		e.metrics.observeOutcome(m.Op, outcomeRolledBack)
		m.fields().WithError(err).WithField("kind", service.Kind(err)).Warn("remote call failed, rolled back")
		return fmt.Errorf("%s: %w", m.Op, err)
	}

	if m.reconcile != nil {
		m.next = reconciled
		e.store.Replace(reconciled)
	}
	m.phase = PhaseCommitted
	e.metrics.observeOutcome(m.Op, outcomeCommitted)
	entry := m.fields()
	if m.Op == OpAddTask {
		entry = entry.WithField("server_id", o.Task.ID)
	}
	entry.Debug("committed")
	return nil
}

func (m *Mutation) fields() *logrus.Entry {
	return m.engine.log.WithFields(logrus.Fields{
		"op":      m.Op,
		"card_id": m.CardID,
		"task_id": m.TaskID,
	})
}
