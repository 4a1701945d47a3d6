package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Print a fresh namespace for a new settings profile",
		Long: "Print a random namespace. Pass it with --namespace (or DESIGNCTL_NAMESPACE) " +
			"to persist settings under a new profile instead of editing a draft.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())
			return nil
		},
	}

	return cmd
}
