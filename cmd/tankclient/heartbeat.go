package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHeartbeatCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Show the Fishbase status reported by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			monitor := rt.monitor()
			if err := monitor.Refresh(cmd.Context()); err != nil {
				return err
			}

			snap := monitor.Snapshot()
			state := "up"
			if snap.Degraded {
				state = "degraded"
			}
			fmt.Fprintf(rt.out, "fishbase: %s (%s)\n", snap.Status, state)
			return nil
		},
	}
}
