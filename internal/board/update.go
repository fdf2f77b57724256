package board

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every lookup failure in this package.
	ErrNotFound = errors.New("not found")

	// ErrCardNotFound is returned when no card carries the requested id.
	ErrCardNotFound = fmt.Errorf("card %w", ErrNotFound)

	// ErrTaskNotFound is returned when a task index or id does not resolve.
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)
)

// CardIndex returns the position of the card with the given id, or -1.
func (b Board) CardIndex(id ID) int {
	for i, c := range b.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Card returns the card with the given id.
func (b Board) Card(id ID) (Card, bool) {
	i := b.CardIndex(id)
	if i < 0 {
		return Card{}, false
	}
	return b.Cards[i], true
}

// WithTaskAppended returns a copy of b where task is appended to the card's tasks.
func (b Board) WithTaskAppended(cardID ID, task Task) (Board, error) {
	i, c, err := b.lookup(cardID)
	if err != nil {
		return Board{}, err
	}
	tasks := make([]Task, len(c.Tasks), len(c.Tasks)+1)
	copy(tasks, c.Tasks)
	c.Tasks = append(tasks, task)
	return b.withCard(i, c), nil
}

// WithTaskRemoved returns a copy of b without the task at index on the card.
func (b Board) WithTaskRemoved(cardID ID, index int) (Board, error) {
	i, c, err := b.lookup(cardID)
	if err != nil {
		return Board{}, err
	}
	if index < 0 || index >= len(c.Tasks) {
		return Board{}, fmt.Errorf("%w: index %d on card %s", ErrTaskNotFound, index, cardID)
	}
	tasks := make([]Task, 0, len(c.Tasks)-1)
	tasks = append(tasks, c.Tasks[:index]...)
	tasks = append(tasks, c.Tasks[index+1:]...)
	c.Tasks = tasks
	return b.withCard(i, c), nil
}

// WithTaskToggled returns a copy of b with the done flag of the task at index
// negated, along with the new value.
func (b Board) WithTaskToggled(cardID ID, index int) (Board, bool, error) {
	i, c, err := b.lookup(cardID)
	if err != nil {
		return Board{}, false, err
	}
	if index < 0 || index >= len(c.Tasks) {
		return Board{}, false, fmt.Errorf("%w: index %d on card %s", ErrTaskNotFound, index, cardID)
	}
	tasks := make([]Task, len(c.Tasks))
	copy(tasks, c.Tasks)
	done := !tasks[index].Done
	tasks[index].Done = done
	c.Tasks = tasks
	return b.withCard(i, c), done, nil
}

// WithTaskID returns a copy of b where the task identified by from on the card
// carries the id to instead.
func (b Board) WithTaskID(cardID, from, to ID) (Board, error) {
	i, c, err := b.lookup(cardID)
	if err != nil {
		return Board{}, err
	}
	for j, t := range c.Tasks {
		if t.ID != from {
			continue
		}
		tasks := make([]Task, len(c.Tasks))
		copy(tasks, c.Tasks)
		tasks[j].ID = to
		c.Tasks = tasks
		return b.withCard(i, c), nil
	}
	return Board{}, fmt.Errorf("%w: %s on card %s", ErrTaskNotFound, from, cardID)
}

func (b Board) lookup(cardID ID) (int, Card, error) {
	i := b.CardIndex(cardID)
	if i < 0 {
		return -1, Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	return i, b.Cards[i], nil
}

// withCard copies the card slice and swaps in c at position i.
func (b Board) withCard(i int, c Card) Board {
	cards := make([]Card, len(b.Cards))
	copy(cards, b.Cards)
	cards[i] = c
	return Board{Cards: cards}
}
