package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/engine"
	"kanban/internal/exitcode"
	"kanban/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	cardRef string
}

// SetCard sets the card reference (for testing).
func (c *AddCmd) SetCard(ref string) {
	c.cardRef = ref
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Add a task to a card" }
func (c *AddCmd) Usage() string      { return "kanban add [--card <card>] <name...>" }
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.cardRef, "card", "", "")
	fs.StringVar(&c.cardRef, "c", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: task name required")
		return exitcode.UserError
	}

	e, code := loadEngine(ctx, cfg, svc, errOut)
	if code != exitcode.Success {
		return code
	}

	b := e.Board()
	var card board.Card
	switch {
	case c.cardRef != "":
		var err error
		if card, err = ResolveCard(b, c.cardRef); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	case len(b.Cards) > 0:
		card = b.Cards[0]
	default:
		fmt.Fprintln(errOut, "error: no cards found")
		return exitcode.UserError
	}

	return runIntent(ctx, cfg, e, engine.AddTaskIntent(card.ID, name), out, errOut)
}
