package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"profile-viewer/render"
	"profile-viewer/store"
	"profile-viewer/viewer"

	"github.com/spf13/cobra"
)

const cliSession = "profilectl"

var errLookupFailed = errors.New("lookup failed")

func lookupCmd() *cobra.Command {
	var (
		latency time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <username>",
		Short: "Resolve a username after the simulated network delay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latency < 0 {
				return errors.New("--latency must not be negative")
			}

			states := store.NewMemoryStore(time.Hour)
			defer states.Close()
			manager := viewer.NewManager(viewer.NewResolver(latency), states)
			defer manager.Close()

			ctx := cmd.Context()
			stop := context.AfterFunc(ctx, manager.Close)
			defer stop()

			state, err := manager.Submit(ctx, cliSession, args[0])
			if err != nil {
				return err
			}
			if !asJSON && state.Loading {
				if err := render.Text(cmd.OutOrStdout(), viewer.Select(state)); err != nil {
					return err
				}
			}

			manager.Wait()
			state, err = manager.State(ctx, cliSession)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			view := viewer.Select(state)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(view); err != nil {
					return err
				}
			} else if err := render.Text(cmd.OutOrStdout(), view); err != nil {
				return err
			}

			if view.Kind == viewer.ViewError {
				return errLookupFailed
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&latency, "latency", viewer.DefaultLatency, "simulated network delay")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the settled view as JSON")
	return cmd
}
