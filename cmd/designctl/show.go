package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/app/session"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

type showOptions struct {
	jsonOutput bool
}

func newShowCmd(app *AppContext) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <document>",
		Short: "Show the slots resolved from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "show")
			prepared, err := app.prepare(ctx, "show slots", args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return renderShowJSON(cmd, prepared)
			}
			return renderShowTable(cmd, prepared)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output slot details as JSON")

	return cmd
}

func renderShowTable(cmd *cobra.Command, prepared *session.Prepared) error {
	out := cmd.OutOrStdout()
	doc := prepared.Document

	fmt.Fprintf(out, "Document:  %s\n", prepared.Path)
	fmt.Fprintf(out, "Namespace: %s\n", valueOrFallback(doc.Namespace, "(draft, nothing persisted)"))
	fmt.Fprintf(out, "Category:  %s\n", doc.Category)
	fmt.Fprintf(out, "Backend:   %s\n\n", doc.Storage.Backend)

	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "KEY\tPROPERTY\tDEFAULT\tSTORAGE KEY\tWIDGET")
	for _, def := range prepared.Registry.Definitions() {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			def.Key,
			def.TargetProperty,
			valueOrFallback(def.DefaultValue, `""`),
			valueOrFallback(def.StorageKey, "(ephemeral)"),
			def.Widget,
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if warnings := slotWarnings(prepared.Registry); len(warnings) > 0 {
		fmt.Fprintf(out, "\nSkipped slots:\n")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	return nil
}

type showSlotPayload struct {
	Key            string `json:"key"`
	TargetProperty string `json:"target_property"`
	Default        string `json:"default"`
	StorageKey     string `json:"storage_key,omitempty"`
	Widget         string `json:"widget"`
}

type showJSONPayload struct {
	Document  string            `json:"document"`
	Namespace string            `json:"namespace,omitempty"`
	Category  string            `json:"category"`
	Backend   string            `json:"backend"`
	Slots     []showSlotPayload `json:"slots"`
	Warnings  []string          `json:"warnings,omitempty"`
}

func renderShowJSON(cmd *cobra.Command, prepared *session.Prepared) error {
	payload := showJSONPayload{
		Document:  prepared.Path,
		Namespace: prepared.Document.Namespace,
		Category:  prepared.Document.Category,
		Backend:   prepared.Document.Storage.Backend,
		Slots:     make([]showSlotPayload, 0, prepared.Registry.Len()),
		Warnings:  slotWarnings(prepared.Registry),
	}
	for _, def := range prepared.Registry.Definitions() {
		payload.Slots = append(payload.Slots, showSlotPayload{
			Key:            def.Key,
			TargetProperty: def.TargetProperty,
			Default:        def.DefaultValue,
			StorageKey:     def.StorageKey,
			Widget:         string(def.Widget),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func slotWarnings(reg *slots.Registry) []string {
	err := reg.Warnings()
	if err == nil {
		return nil
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		out = append(out, e.Error())
	}
	return out
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
