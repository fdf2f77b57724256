// Package engine applies user intents to the board optimistically and
// reconciles them with the remote authority.
//
// Every operation follows the same protocol: snapshot the store, commit the
// derived board at once, call the remote, then either reconcile (commit the
// server's answer) or roll back to the snapshot. The snapshot and the
// optimistic board are captured when the operation starts; a rollback
// restores that snapshot even if other mutations committed in between, which
// discards their changes. Failed calls are logged and never retried.
package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"kanban/internal/board"
	"kanban/internal/service"
	"kanban/internal/store"
)

// Engine owns the mutation protocol for one store.
type Engine struct {
	store   *store.Store
	remote  service.Service
	ids     board.IDSource
	log     logrus.FieldLogger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDSource sets the generator for provisional task ids.
func WithIDSource(src board.IDSource) Option {
	return func(e *Engine) { e.ids = src }
}

// WithMetrics records mutation outcomes and call latency.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine writing to st and persisting through remote.
func New(st *store.Store, remote service.Service, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		remote: remote,
		ids:    board.ProvisionalIDs{},
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the engine writes to.
func (e *Engine) Store() *store.Store { return e.store }

// Board returns the current board.
func (e *Engine) Board() board.Board { return e.store.Current() }

// Fetch reads the board from the remote without touching the store.
func (e *Engine) Fetch(ctx context.Context) (board.Board, error) {
	b, err := e.remote.FetchBoard(ctx)
	if err != nil {
		e.log.WithError(err).WithField("kind", service.Kind(err)).Error("fetch board failed")
		return board.Board{}, fmt.Errorf("fetch board: %w", err)
	}
	return b, nil
}

// Install makes b the current board.
func (e *Engine) Install(b board.Board) {
	e.store.Replace(b)
	e.log.WithField("cards", len(b.Cards)).Debug("board loaded")
}

// Load fetches the board and installs it. On failure the store is unchanged.
func (e *Engine) Load(ctx context.Context) error {
	b, err := e.Fetch(ctx)
	if err != nil {
		return err
	}
	e.Install(b)
	return nil
}

// AddTask appends a task with a provisional id to the card and commits it.
// The returned mutation creates the task remotely; on success the provisional
// id is replaced by the server's.
func (e *Engine) AddTask(cardID board.ID, name string) (*Mutation, error) {
	prev := e.store.Current()
	task := board.Task{ID: e.ids.NewID(), Name: name}
	next, err := prev.WithTaskAppended(cardID, task)
	if err != nil {
		return nil, e.abort(OpAddTask, cardID, "", err)
	}
	card, _ := next.Card(cardID)

	m := &Mutation{Op: OpAddTask, CardID: cardID, TaskID: task.ID, Index: len(card.Tasks) - 1}
	m.call = func(ctx context.Context) Outcome {
		created, err := e.remote.CreateTask(ctx, cardID, board.Task{Name: task.Name, Done: task.Done})
		return Outcome{Task: created, Err: err}
	}
	m.reconcile = func(o Outcome) (board.Board, error) {
		if o.Task.ID == "" {
			return board.Board{}, fmt.Errorf("%w: created task has no id", service.ErrMalformed)
		}
		return m.next.WithTaskID(cardID, task.ID, o.Task.ID)
	}
	e.commit(m, prev, next)
	return m, nil
}

// DeleteTask removes the task at taskIndex from the card and commits it.
// The caller guarantees that taskIndex addresses taskID on the current board;
// the pair is not cross-checked.
func (e *Engine) DeleteTask(cardID, taskID board.ID, taskIndex int) (*Mutation, error) {
	prev := e.store.Current()
	next, err := prev.WithTaskRemoved(cardID, taskIndex)
	if err != nil {
		return nil, e.abort(OpDeleteTask, cardID, taskID, err)
	}

	m := &Mutation{Op: OpDeleteTask, CardID: cardID, TaskID: taskID, Index: taskIndex}
	m.call = func(ctx context.Context) Outcome {
		return Outcome{Err: e.remote.DeleteTask(ctx, cardID, taskID)}
	}
	e.commit(m, prev, next)
	return m, nil
}

// ToggleTask negates the done flag of the task at taskIndex and commits it.
// The negated value is captured now and is exactly what the remote receives.
// The same index precondition as DeleteTask applies.
func (e *Engine) ToggleTask(cardID, taskID board.ID, taskIndex int) (*Mutation, error) {
	prev := e.store.Current()
	next, done, err := prev.WithTaskToggled(cardID, taskIndex)
	if err != nil {
		return nil, e.abort(OpToggleTask, cardID, taskID, err)
	}

	m := &Mutation{Op: OpToggleTask, CardID: cardID, TaskID: taskID, Index: taskIndex, Done: done}
	m.call = func(ctx context.Context) Outcome {
		return Outcome{Err: e.remote.SetTaskDone(ctx, cardID, taskID, done)}
	}
	e.commit(m, prev, next)
	return m, nil
}

// Do runs the remote call and settles the mutation on the calling goroutine.
func (e *Engine) Do(ctx context.Context, m *Mutation) error {
	return m.Settle(m.Call(ctx))
}

func (e *Engine) commit(m *Mutation, prev, next board.Board) {
	m.engine = e
	m.prev = prev
	m.next = next
	e.store.Replace(next)
	m.phase = PhaseOptimistic
	m.fields().Debug("optimistic commit")
}

func (e *Engine) abort(op Op, cardID, taskID board.ID, err error) error {
	e.metrics.observeOutcome(op, outcomeAborted)
	e.log.WithFields(logrus.Fields{
		"op":      op,
		"card_id": cardID,
		"task_id": taskID,
	}).WithError(err).Warn("nothing committed")
	return fmt.Errorf("%s: %w", op, err)
}
