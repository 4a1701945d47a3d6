package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/target"
)

type getOptions struct {
	jsonOutput bool
}

func newGetCmd(app *AppContext) *cobra.Command {
	opts := &getOptions{}

	cmd := &cobra.Command{
		Use:   "get <document> [key...]",
		Short: "Print hydrated slot values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "get")
			prepared, err := app.prepare(ctx, "read settings", args[0])
			if err != nil {
				return err
			}

			sess, err := app.hydrate(ctx, "read settings", prepared, target.NewStyleSheet(""), nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			values := sess.Controller.Values()
			keys := args[1:]
			if len(keys) == 0 {
				keys = prepared.Registry.Keys()
			}

			selected := make(map[string]string, len(keys))
			for _, key := range keys {
				value, ok := values[key]
				if !ok {
					return newCommandError("read settings", fmt.Sprintf("looking up slot %q", key), fmt.Errorf("slot not found"), "Run 'designctl show' to list the slots of this document.")
				}
				selected[key] = value
			}

			if opts.jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(selected)
			}

			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, selected[key])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output values as a JSON object")

	return cmd
}
