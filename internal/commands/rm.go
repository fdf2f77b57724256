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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "kanban rm <ref>" }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	// Reject bad refs before touching the backend.
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

	return runIntent(ctx, cfg, e, engine.DeleteTaskIntent(card.ID, card.Tasks[idx].ID, idx), out, errOut)
}
