package commands

import (
	"context"
	"flag"
	"io"

	"kanban/internal/config"
	"kanban/internal/exitcode"
	"kanban/internal/output"
	"kanban/internal/service"
)

func init() {
	Register(&CardsCmd{})
}

// CardsCmd implements the cards command.
type CardsCmd struct{}

func (c *CardsCmd) Name() string       { return "cards" }
func (c *CardsCmd) Aliases() []string  { return nil }
func (c *CardsCmd) Synopsis() string   { return "Print card summaries" }
func (c *CardsCmd) Usage() string      { return "kanban cards" }
func (c *CardsCmd) NeedsService() bool { return true }

func (c *CardsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CardsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	e, code := loadEngine(ctx, cfg, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	for i, card := range e.Board().Cards {
		output.FormatCardSummary(out, output.CardLetter(i), card)
	}
	return exitcode.Success
}
