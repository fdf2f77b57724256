package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"kanban/internal/config"
	"kanban/internal/engine"
	"kanban/internal/exitcode"
	"kanban/internal/service"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command. It flips the done flag either way.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Toggle a task between open and done" }
func (c *ToggleCmd) Usage() string      { return "kanban toggle <ref>" }
func (c *ToggleCmd) NeedsService() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if _, err := ParseTaskRef(args); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	e, code := loadEngine(ctx, cfg, svc, errOut)
	if code != exitcode.Success {
		return code
	}
	card, idx, code := resolveTask(e, args, errOut)
	if code != exitcode.Success {
		return code
	}

	return runIntent(ctx, cfg, e, engine.ToggleTaskIntent(card.ID, card.Tasks[idx].ID, idx), out, errOut)
}
