package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/designctl/internal/app/session"
	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

const hydrateTimeout = 30 * time.Second

// hydrate opens a session against t and waits for hydration.
func (a *AppContext) hydrate(ctx context.Context, operation string, prepared *session.Prepared, t ports.Target, hook livesync.Hook) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, hydrateTimeout)
	defer cancel()

	sess, err := a.Session.Hydrate(ctx, session.OpenRequest{
		Prepared:  prepared,
		Target:    target.Direct(t),
		Hook:      hook,
		Overrides: a.Overrides(),
	})
	if err != nil {
		return nil, newCommandError(operation, fmt.Sprintf("hydrating %q", prepared.Path), err, "Check that the storage backend is reachable.")
	}
	return sess, nil
}

func contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, hydrateTimeout)
}
