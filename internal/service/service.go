// Package service defines the backend-agnostic interface to the remote authority.
package service

import (
	"context"

	"kanban/internal/board"
)

// Service is the remote authority that persists the board.
// The engine and commands never import a concrete backend.
type Service interface {
	// FetchBoard returns every card with its tasks, in display order.
	FetchBoard(ctx context.Context) (board.Board, error)

	// CreateTask persists a new task under cardID. Only Name and Done of task
	// are sent; the returned task carries the server-assigned id.
	CreateTask(ctx context.Context, cardID board.ID, task board.Task) (board.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, cardID, taskID board.ID) error

	// SetTaskDone sets the persisted done flag of a task.
	SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) error
}
