package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

func newSetCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <document> <key=value>...",
		Short: "Update slot values and persist them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, log := app.CommandContext(cmd, "set")

			updates, err := parseAssignments(args[1:])
			if err != nil {
				return newCommandError("update settings", "parsing arguments", err, "Pass updates as key=value, e.g. primaryColor=#ff0000.")
			}

			prepared, err := app.prepare(ctx, "update settings", args[0])
			if err != nil {
				return err
			}

			var mu sync.Mutex
			failed := map[string]bool{}
			for _, u := range updates {
				sub, _ := app.Events.SubscribeSlot(ports.EventSlotPersistFailed, u.key, func(_ context.Context, ev ports.DomainEvent) error {
					slot, _ := events.SlotOf(ev)
					mu.Lock()
					failed[slot] = true
					mu.Unlock()
					return nil
				})
				defer sub.Unsubscribe()
			}

			sess, err := app.hydrate(ctx, "update settings", prepared, target.NewStyleSheet(""), nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			for _, u := range updates {
				if err := sess.Controller.SetValue(u.key, u.value); err != nil {
					if errors.Is(err, livesync.ErrUnknownSlot) {
						return newCommandError("update settings", fmt.Sprintf("setting %q", u.key), err, "Run 'designctl show' to list the slots of this document.")
					}
					return newCommandError("update settings", fmt.Sprintf("setting %q", u.key), err, "Retry once hydration has completed.")
				}
				def, _ := prepared.Registry.Lookup(u.key)
				if !def.Persistent() && log != nil {
					log.Warn(ctx, "slot has no storage key, value not persisted", "slot", u.key)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", u.key, u.value)
			}

			flushCtx, cancel := contextWithTimeout(ctx)
			defer cancel()
			if err := sess.Controller.Flush(flushCtx); err != nil {
				return newCommandError("update settings", "waiting for storage writes", err, "Check that the storage backend is reachable.")
			}
			mu.Lock()
			defer mu.Unlock()
			if len(failed) > 0 {
				slots := make([]string, 0, len(failed))
				for slot := range failed {
					slots = append(slots, slot)
				}
				sort.Strings(slots)
				return newCommandError("update settings", "persisting values", fmt.Errorf("writes failed for %s", strings.Join(slots, ", ")), "Check that the storage backend is writable and retry.")
			}
			return nil
		},
	}

	return cmd
}

type assignment struct {
	key   string
	value string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q", arg)
		}
		out = append(out, assignment{key: key, value: value})
	}
	return out, nil
}
