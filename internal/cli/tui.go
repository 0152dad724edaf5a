package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tadasync/internal/todolist"
	"github.com/Makepad-fr/tadasync/internal/tui"
)

func runTUI(ctx context.Context, board *todolist.Board, logger *log.Logger) error {
	logger.Info("starting tui")
	err := tui.Run(ctx, board, tui.WithLogger(logger))
	if err != nil {
		logger.Error("tui exited", "err", err)
	}
	return err
}

// withTUI replaces the interactive program; tests use it to skip the terminal.
func withTUI(fn func(ctx context.Context, board *todolist.Board, logger *log.Logger) error) Option {
	return func(a *App) { a.runTUI = fn }
}
