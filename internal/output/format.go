// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"kanban/internal/board"
)

const (
	// CardSeparator is the separator line around card headers.
	CardSeparator = "------------"
)

// FormatCardHeader formats a card section header.
// Format: separator, "{LETTER}  {TITLE} [{STATUS}]", separator.
func FormatCardHeader(w io.Writer, letter rune, card board.Card) {
	fmt.Fprintln(w, CardSeparator)
	fmt.Fprintf(w, "%c  %s [%s]\n", letter, normalizeTitle(card.Title), statusLabel(card.Status))
	fmt.Fprintln(w, CardSeparator)
}

// FormatTask formats a task line under a card header.
// Format: "{N:>4}  [x] {NAME}\n", with "[ ]" for open tasks.
func FormatTask(w io.Writer, num int, task board.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.Done), normalizeTitle(task.Name))
}

// FormatCardSummary formats one line of the cards command.
// Format: "{LETTER}  {TITLE} [{STATUS}] {DONE}/{TOTAL}\n"
func FormatCardSummary(w io.Writer, letter rune, card board.Card) {
	done := 0
	for _, t := range card.Tasks {
		if t.Done {
			done++
		}
	}
	fmt.Fprintf(w, "%c  %s [%s] %d/%d\n", letter, normalizeTitle(card.Title), statusLabel(card.Status), done, len(card.Tasks))
}

// FormatBoard writes every card with its tasks, lettering cards from 'a'.
func FormatBoard(w io.Writer, b board.Board) {
	for i, card := range b.Cards {
		FormatCardHeader(w, CardLetter(i), card)
		if len(card.Tasks) == 0 {
			fmt.Fprintln(w, "      (no tasks)")
			continue
		}
		for j, task := range card.Tasks {
			FormatTask(w, j+1, task)
		}
	}
}

// CardLetter returns the reference letter of the card at index i.
func CardLetter(i int) rune {
	return rune('a' + i)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func statusLabel(s board.Status) string {
	if strings.TrimSpace(string(s)) == "" {
		return "todo"
	}
	return string(s)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
