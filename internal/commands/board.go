package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/engine"
	"kanban/internal/exitcode"
	"kanban/internal/logging"
	"kanban/internal/service"
	"kanban/internal/store"
	"kanban/internal/tui"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd opens the interactive board.
type BoardCmd struct{}

func (c *BoardCmd) Name() string       { return "board" }
func (c *BoardCmd) Aliases() []string  { return []string{"ui"} }
func (c *BoardCmd) Synopsis() string   { return "Open the interactive board" }
func (c *BoardCmd) Usage() string      { return "kanban board" }
func (c *BoardCmd) NeedsService() bool { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	logger, closer, err := logging.NewFile(cfg.Dir, cfg.Debug)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	e := engine.New(store.New(board.Board{}), svc,
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	p := tea.NewProgram(tui.New(ctx, e), tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out))
	_, runErr := p.Run()

	// The session's mutation counts and call latencies go to the log on exit.
	if err := logging.LogMetrics(logger, reg); err != nil {
		logger.WithError(err).Warn("metrics summary failed")
	}
	if runErr != nil && ctx.Err() == nil {
		fmt.Fprintf(errOut, "error: %v\n", runErr)
		return exitcode.UserError
	}
	return exitcode.Success
}
