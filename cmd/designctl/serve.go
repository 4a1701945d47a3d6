package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/config"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/storage"
	"github.com/alexisbeaulieu97/designctl/internal/storage/remote"
)

type serveOptions struct {
	addr      string
	storePath string
}

func newServeCmd(app *AppContext) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a settings store over the remote settings API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, log := app.CommandContext(cmd, "serve")
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			path := opts.storePath
			if path == "" {
				path = valueOrFallback(app.flags.store(), config.DefaultStorePath)
			}
			handler, err := buildServeHandler(path, app.flags.token(), log)
			if err != nil {
				return newCommandError("serve settings", fmt.Sprintf("opening store %q", path), err, "Check the store path and its permissions.")
			}

			server := &http.Server{
				Addr:              opts.addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", path, opts.addr)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return newCommandError("serve settings", fmt.Sprintf("listening on %s", opts.addr), err, "Pick a free address with --addr.")
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8787", "Listen address")
	cmd.Flags().StringVar(&opts.storePath, "path", "", "Settings file to serve (defaults to --store)")

	return cmd
}

func buildServeHandler(path, token string, log ports.Logger) (http.Handler, error) {
	resolved, err := config.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFileStore(resolved)
	if err != nil {
		return nil, err
	}
	return remote.NewHandler(store, remote.HandlerOptions{Token: token, Logger: log}), nil
}
