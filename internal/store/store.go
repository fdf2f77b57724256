// Package store holds the board value the client currently believes in.
package store

import (
	"sync/atomic"

	"kanban/internal/board"
)

// Store is a single-value holder for the current board.
// Replace swaps the whole value; readers never see a half-applied update.
type Store struct {
	current atomic.Pointer[board.Board]
	version atomic.Uint64
}

// New creates a store seeded with initial.
func New(initial board.Board) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Current returns the current board.
func (s *Store) Current() board.Board {
	return *s.current.Load()
}

// Replace makes b the current board.
func (s *Store) Replace(b board.Board) {
	s.current.Store(&b)
	s.version.Add(1)
}

// Version counts replacements since the store was created.
func (s *Store) Version() uint64 {
	return s.version.Load()
}
