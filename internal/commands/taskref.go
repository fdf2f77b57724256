package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"kanban/internal/board"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Letter    rune // 0 if no letter, 'a'-'z' otherwise
	TaskNum   int  // 1-based task number
	HasLetter bool // true if a card letter was provided
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrCardLetterNotFound indicates a letter past the last card.
	ErrCardLetterNotFound = errors.New("card letter not found")

	// ErrTaskOutOfRange indicates a task number past the end of a card.
	ErrTaskOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses task reference from args.
//
// Accepted forms:
//   - "<digits>" addresses the first card
//   - "<letter><digits>" such as a1 or b12
//   - "<letter> <digits>" as two arguments
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	first := args[0]

	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{TaskNum: num}, nil
	}

	if first == "" || !isLetter(rune(first[0])) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
	}
	letter := rune(first[0])

	if len(first) > 1 {
		if !isAllDigits(first[1:]) {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		num, err := strconv.Atoi(first[1:])
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{Letter: letter, TaskNum: num, HasLetter: true}, nil
	}

	// A lone letter needs the number as the next argument.
	if len(args) < 2 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if !isAllDigits(args[1]) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s %s", first, args[1])
	}
	num, err := strconv.Atoi(args[1])
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s %s", first, args[1])
	}
	return TaskRef{Letter: letter, TaskNum: num, HasLetter: true}, nil
}

// Resolve finds the card and task the reference addresses on b.
func (r TaskRef) Resolve(b board.Board) (board.Card, int, error) {
	letter := r.Letter
	if !r.HasLetter {
		letter = 'a'
	}
	i := int(letter - 'a')
	if i < 0 || i >= len(b.Cards) {
		return board.Card{}, -1, fmt.Errorf("%w: %c", ErrCardLetterNotFound, letter)
	}
	card := b.Cards[i]
	if r.TaskNum < 1 || r.TaskNum > len(card.Tasks) {
		return board.Card{}, -1, fmt.Errorf("%w: %d", ErrTaskOutOfRange, r.TaskNum)
	}
	return card, r.TaskNum - 1, nil
}

// ResolveCard finds a card by letter or by id.
func ResolveCard(b board.Board, ref string) (board.Card, error) {
	if len(ref) == 1 && isLetter(rune(ref[0])) {
		i := int(ref[0] - 'a')
		if i < len(b.Cards) {
			return b.Cards[i], nil
		}
	}
	if c, ok := b.Card(board.ID(ref)); ok {
		return c, nil
	}
	return board.Card{}, fmt.Errorf("card not found: %s", ref)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isLetter returns true if r is a lowercase letter a-z.
func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}
