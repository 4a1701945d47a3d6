package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/app/session"
	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/designctl/internal/logger"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// AppContext bundles long-lived services created before a command runs.
type AppContext struct {
	flags *rootFlags

	Logger  ports.Logger
	Events  *events.LoggingPublisher
	Session *session.Service

	correlationID string
}

func (a *AppContext) init(cmd *cobra.Command) error {
	level := a.flags.logLevel()
	if a.flags.verbose() {
		level = "debug"
	}

	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: !a.flags.logJSON(),
		Writer:        cmd.ErrOrStderr(),
		Component:     "designctl",
	})
	if err != nil {
		return newCommandError("start", "configuring logging", err, "Use one of debug, info, warn or error for --log-level.")
	}

	a.Logger = log
	a.Events = events.NewLoggingPublisher(log)
	a.Session = session.NewService(log, a.Events)
	a.correlationID = ports.GenerateCorrelationID()
	return nil
}

// CommandContext returns the command context carrying the invocation's
// correlation ID and a logger scoped to component.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ports.WithCorrelationID(ctx, a.correlationID)
	if a.Logger == nil {
		return ctx, nil
	}
	return ctx, a.Logger.With("command", component)
}

// Overrides returns the runtime settings that override the document.
func (a *AppContext) Overrides() session.Overrides {
	return session.Overrides{
		Namespace:   a.flags.namespace(),
		Backend:     a.flags.backend(),
		StorePath:   a.flags.store(),
		RemoteURL:   a.flags.remoteURL(),
		RemoteToken: a.flags.token(),
		CacheTTL:    a.flags.cacheTTL(),
		Concurrency: a.flags.concurrency(),
	}
}

// prepare loads and resolves a document, wrapping failures for display.
func (a *AppContext) prepare(ctx context.Context, operation, path string) (*session.Prepared, error) {
	prepared, err := a.Session.Prepare(ctx, path, a.Overrides())
	if err != nil {
		return nil, newCommandError(operation, fmt.Sprintf("loading %q", path), err, "Check the document with 'designctl validate'.")
	}
	return prepared, nil
}
