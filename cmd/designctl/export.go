package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/target"
	"github.com/alexisbeaulieu97/designctl/pkg/diff"
)

type exportOptions struct {
	format   string
	output   string
	selector string
	noFonts  bool
	check    bool
}

func newExportCmd(app *AppContext) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render hydrated settings as CSS custom properties or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := app.CommandContext(cmd, "export")
			if opts.format != "css" && opts.format != "json" {
				return newCommandError("export settings", "checking --format", fmt.Errorf("unsupported format %q", opts.format), "Use --format css or --format json.")
			}

			prepared, err := app.prepare(ctx, "export settings", args[0])
			if err != nil {
				return err
			}

			sheet := target.NewStyleSheet(opts.selector)
			var hook *target.FontHook
			if !opts.noFonts {
				hook = target.NewFontHook()
			}
			sess, err := app.hydrate(ctx, "export settings", prepared, sheet, hookOrNil(hook))
			if err != nil {
				return err
			}
			defer sess.Close()

			render := func(w io.Writer) error {
				if opts.format == "json" {
					encoder := json.NewEncoder(w)
					encoder.SetIndent("", "  ")
					return encoder.Encode(sheet.Properties())
				}
				_, err := sheet.WriteTo(w)
				return err
			}
			if opts.check {
				return checkOutput(cmd, opts.output, render)
			}
			return writeOutput(cmd, opts.output, render)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "css", "Output format (css or json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&opts.selector, "selector", ":root", "CSS selector wrapping the properties")
	cmd.Flags().BoolVar(&opts.noFonts, "no-fonts", false, "Skip font stylesheet imports")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Compare with --output instead of writing it; fail and print a diff when it is stale")

	return cmd
}

func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(cmd.OutOrStdout())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newCommandError("export settings", fmt.Sprintf("creating directory for %q", path), err, "Check directory permissions.")
	}
	file, err := os.Create(path)
	if err != nil {
		return newCommandError("export settings", fmt.Sprintf("creating %q", path), err, "Check directory permissions.")
	}
	if err := render(file); err != nil {
		_ = file.Close()
		return newCommandError("export settings", fmt.Sprintf("writing %q", path), err, "Check available disk space.")
	}
	return file.Close()
}

// checkOutput renders into memory and compares the result with path.
func checkOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "" {
		return newCommandError("check export", "reading flags", fmt.Errorf("--check requires --output"), "Pass the file to compare with -o.")
	}

	var rendered bytes.Buffer
	if err := render(&rendered); err != nil {
		return err
	}
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return newCommandError("check export", fmt.Sprintf("reading %q", path), err, "Check file permissions.")
	}

	out := diff.Unified(existing, rendered.Bytes(), path, "rendered")
	if out == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", path)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return newCommandError("check export", fmt.Sprintf("comparing %q", path), fmt.Errorf("output is out of date"), "Run the same export without --check to update it.")
}

// hookOrNil keeps a nil *FontHook from becoming a non-nil interface.
func hookOrNil(h *target.FontHook) livesync.Hook {
	if h == nil {
		return nil
	}
	return h
}
