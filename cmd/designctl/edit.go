package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/designctl/internal/app/session"
	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/designctl/internal/target"
	"github.com/alexisbeaulieu97/designctl/internal/tui"
)

type editOptions struct {
	force bool
}

func newEditCmd(app *AppContext) *cobra.Command {
	opts := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit <document>",
		Short: "Edit settings interactively with a live preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, log := app.CommandContext(cmd, "edit")
			if !opts.force && !isInteractive(cmd) {
				return newCommandError("edit settings", "checking the terminal", fmt.Errorf("stdout is not a terminal"), "Use 'designctl set' in scripts, or pass --force.")
			}

			prepared, err := app.prepare(ctx, "edit settings", args[0])
			if err != nil {
				return err
			}

			// Logs go to a buffer while the alternate screen is active.
			buffer := logging.NewEventBuffer(0)
			buffered := logging.NewBufferedLogger(buffer)
			defer buffer.Flush(app.Logger)

			service := session.NewService(buffered, events.NewLoggingPublisher(buffered))
			theme := target.NewTerminalTheme()
			sess, err := service.Open(ctx, session.OpenRequest{
				Prepared:  prepared,
				Target:    target.Direct(theme),
				Overrides: app.Overrides(),
			})
			if err != nil {
				return newCommandError("edit settings", fmt.Sprintf("opening %q", prepared.Path), err, "Check that the storage backend is reachable.")
			}
			defer sess.Close()

			model := tui.NewModel(ctx, sess.Controller, tui.Options{
				Title:   valueOrFallback(prepared.Document.Namespace, "draft"),
				Logs:    buffer,
				Preview: theme,
				Reload:  sess.Reload,
			})
			defer model.Close()

			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := program.Run(); err != nil {
				if log != nil {
					log.Error(ctx, "editor failed", "error", err)
				}
				return newCommandError("edit settings", "running the editor", err, "Retry in a terminal that supports the alternate screen.")
			}

			flushCtx, cancel := contextWithTimeout(ctx)
			defer cancel()
			if err := sess.Controller.Flush(flushCtx); err != nil {
				return newCommandError("edit settings", "waiting for storage writes", err, "Check that the storage backend is reachable.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Start the editor even when stdout is not a terminal")

	return cmd
}

func isInteractive(cmd *cobra.Command) bool {
	if file, ok := cmd.OutOrStdout().(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
