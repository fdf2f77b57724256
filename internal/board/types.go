// Package board defines the board aggregate (cards holding tasks) and the
// immutable update helpers used to derive one board state from another.
package board

import (
	"encoding/json"
	"fmt"
)

// Status is the workflow column of a card.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ID identifies a card or a task.
// The remote API uses numeric ids; other backends use opaque strings.
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// MarshalJSON emits all-digit ids as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Task is a single checklist entry on a card.
type Task struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// Card is a unit of work on the board.
type Card struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Tasks       []Task `json:"tasks"`
}

// Board is the ordered set of cards.
//
// A Board value is treated as immutable: helpers in this package never write
// through the slices of the receiver, so a retained copy stays valid as a
// rollback snapshot.
type Board struct {
	Cards []Card
}

// MarshalJSON encodes the board as a bare array of cards, the wire form of GET /cards.
func (b Board) MarshalJSON() ([]byte, error) {
	cards := b.Cards
	if cards == nil {
		cards = []Card{}
	}
	return json.Marshal(cards)
}

// UnmarshalJSON decodes a bare array of cards.
func (b *Board) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	b.Cards = cards
	return nil
}

func isNumeric(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
