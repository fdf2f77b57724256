// Package server is a reference implementation of the board API that the
// kanbanapi backend talks to: GET /cards and the per-task endpoints below it.
package server

import (
	"context"

	"kanban/internal/board"
)

// Repository persists the board behind the API. Lookups that miss return an
// error matching board.ErrNotFound.
type Repository interface {
	// Cards returns the whole board in display order.
	Cards(ctx context.Context) (board.Board, error)

	// AddTask appends a task to a card and assigns it a numeric id.
	AddTask(ctx context.Context, cardID board.ID, name string, done bool) (board.Task, error)

	// DeleteTask removes a task from a card.
	DeleteTask(ctx context.Context, cardID, taskID board.ID) error

	// SetTaskDone updates the done flag of a task and returns the result.
	SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) (board.Task, error)
}
