package server

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"kanban/internal/board"
)

// MemoryRepository keeps the board in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	board  board.Board
	nextID int
}

// NewMemoryRepository returns a repository holding initial. New task ids
// continue after the largest numeric task id in initial.
func NewMemoryRepository(initial board.Board) *MemoryRepository {
	next := 1
	for _, c := range initial.Cards {
		for _, t := range c.Tasks {
			if n, err := strconv.Atoi(t.ID.String()); err == nil && n >= next {
				next = n + 1
			}
		}
	}
	return &MemoryRepository{board: initial, nextID: next}
}

// Cards implements Repository.
func (r *MemoryRepository) Cards(ctx context.Context) (board.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board, nil
}

// AddTask implements Repository.
func (r *MemoryRepository) AddTask(ctx context.Context, cardID board.ID, name string, done bool) (board.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := board.Task{ID: board.ID(strconv.Itoa(r.nextID)), Name: name, Done: done}
	next, err := r.board.WithTaskAppended(cardID, task)
	if err != nil {
		return board.Task{}, err
	}
	r.board = next
	r.nextID++
	return task, nil
}

// DeleteTask implements Repository.
func (r *MemoryRepository) DeleteTask(ctx context.Context, cardID, taskID board.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.taskIndex(cardID, taskID)
	if err != nil {
		return err
	}
	next, err := r.board.WithTaskRemoved(cardID, i)
	if err != nil {
		return err
	}
	r.board = next
	return nil
}

// SetTaskDone implements Repository.
func (r *MemoryRepository) SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) (board.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.taskIndex(cardID, taskID)
	if err != nil {
		return board.Task{}, err
	}
	card, _ := r.board.Card(cardID)
	if card.Tasks[i].Done == done {
		return card.Tasks[i], nil
	}
	next, _, err := r.board.WithTaskToggled(cardID, i)
	if err != nil {
		return board.Task{}, err
	}
	r.board = next
	card, _ = next.Card(cardID)
	return card.Tasks[i], nil
}

func (r *MemoryRepository) taskIndex(cardID, taskID board.ID) (int, error) {
	card, ok := r.board.Card(cardID)
	if !ok {
		return -1, fmt.Errorf("%w: %s", board.ErrCardNotFound, cardID)
	}
	for i, t := range card.Tasks {
		if t.ID == taskID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s on card %s", board.ErrTaskNotFound, taskID, cardID)
}
