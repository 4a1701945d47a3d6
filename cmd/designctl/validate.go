package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type validateOptions struct {
	strict bool
}

func newValidateCmd(app *AppContext) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a slot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "validate")
			prepared, err := app.prepare(ctx, "validate document", args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			warnings := slotWarnings(prepared.Registry)
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s: %d slots, %d skipped\n", args[0], prepared.Registry.Len(), len(warnings))

			if opts.strict && len(warnings) > 0 {
				return newCommandError("validate document", fmt.Sprintf("%d slots were skipped", len(warnings)), prepared.Registry.Warnings(), "Fix the reported slots or run without --strict.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any slot is skipped")

	return cmd
}
