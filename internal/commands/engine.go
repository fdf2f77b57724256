package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/engine"
	"kanban/internal/exitcode"
	"kanban/internal/logging"
	"kanban/internal/service"
	"kanban/internal/store"
)

// cliLogger returns the logger one-shot commands hand to the engine.
// Without --debug nothing is written so stderr only carries user messages.
func cliLogger(cfg *config.Config, errOut io.Writer) *log.Logger {
	if cfg.Debug {
		return logging.New(errOut, true)
	}
	return logging.New(io.Discard, false)
}

// loadEngine builds an engine over svc and installs the remote board.
func loadEngine(ctx context.Context, cfg *config.Config, svc service.Service, errOut io.Writer) (*engine.Engine, int) {
	e := engine.New(store.New(board.Board{}), svc, engine.WithLogger(cliLogger(cfg, errOut)))
	if err := e.Load(ctx); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, exitcode.BackendError
	}
	return e, exitcode.Success
}

// runIntent submits intent to a loop over e and reports how it settled.
// The loop outlives ctx so an interrupted call is still settled, and rolled
// back, before the command returns.
func runIntent(ctx context.Context, cfg *config.Config, e *engine.Engine, intent engine.Intent, out, errOut io.Writer) int {
	loopCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()
	loop := engine.NewLoop(e)
	go loop.Run(loopCtx)

	r := <-loop.Submit(ctx, intent)
	switch {
	case r.Err == nil:
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	case errors.Is(r.Err, engine.ErrLoopStopped) && r.Mutation != nil:
		fmt.Fprintf(errOut, "error: interrupted: %s not confirmed by the backend\n", r.Mutation.Op)
		return exitcode.BackendError
	case r.Mutation == nil:
		fmt.Fprintf(errOut, "error: %v\n", r.Err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: rolled back: %v\n", r.Err)
		return exitcode.RolledBack
	}
}

// resolveTask parses a task ref and finds it on the engine's board.
func resolveTask(e *engine.Engine, args []string, errOut io.Writer) (board.Card, int, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return board.Card{}, -1, exitcode.UserError
	}
	card, idx, err := ref.Resolve(e.Board())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return board.Card{}, -1, exitcode.UserError
	}
	return card, idx, exitcode.Success
}
