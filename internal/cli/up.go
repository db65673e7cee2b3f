package cli

import (
	"github.com/spf13/cobra"
)

// newUpCommand creates the up subcommand
func newUpCommand(a *app) *cobra.Command {
	var hostname string

	cmd := &cobra.Command{
		Use:   "up <ip>",
		Short: "Mark a node as up: the opposite of drain",
		Long: `Up marks the machine as available again. The maintenance window stays in
the schedule until an explicit uncordon.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return svc.Up(cmd.Context(), machineID(args[0], hostname))
		},
	}

	addHostnameFlag(cmd, &hostname)

	return cmd
}
