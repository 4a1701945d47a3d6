package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/target"
)

var previewTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

func newPreviewCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <document>",
		Short: "Render hydrated settings as terminal swatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "preview")
			prepared, err := app.prepare(ctx, "preview settings", args[0])
			if err != nil {
				return err
			}

			theme := target.NewTerminalTheme()
			sess, err := app.hydrate(ctx, "preview settings", prepared, theme, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			title := fmt.Sprintf("%s (%d slots)", valueOrFallback(prepared.Document.Namespace, "draft"), prepared.Registry.Len())
			fmt.Fprintln(cmd.OutOrStdout(), previewTitleStyle.Render(title))
			fmt.Fprintln(cmd.OutOrStdout(), theme.Render())
			return nil
		},
	}

	return cmd
}
