package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kanban/internal/config"
	"kanban/internal/exitcode"
	"kanban/internal/output"
	"kanban/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `kanban` (no args) and `kanban list <letter>`.
type ListCmd struct{}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "Print the board" }
func (c *ListCmd) Usage() string      { return "kanban list [<card>]" }
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments")
		return exitcode.UserError
	}

	e, code := loadEngine(ctx, cfg, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	b := e.Board()

	if len(args) == 0 {
		if len(b.Cards) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(out, "no cards found")
			}
			return exitcode.Success
		}
		output.FormatBoard(out, b)
		return exitcode.Success
	}

	card, err := ResolveCard(b, args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	output.FormatCardHeader(out, output.CardLetter(b.CardIndex(card.ID)), card)
	for i, task := range card.Tasks {
		output.FormatTask(out, i+1, task)
	}
	return exitcode.Success
}
