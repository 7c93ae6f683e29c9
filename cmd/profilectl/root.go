package main

import (
	"profile-viewer/telemetry"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "Look up demo profiles from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			_, err := telemetry.InitLogger("profilectl", logLevel)
			return err
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "enable structured logs on stderr at this level")
	root.AddCommand(lookupCmd(), demoCmd())
	return root
}
