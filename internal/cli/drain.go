package cli

import (
	"github.com/spf13/cobra"
)

// newDrainCommand creates the drain subcommand
func newDrainCommand(a *app) *cobra.Command {
	var hostname string

	cmd := &cobra.Command{
		Use:   "drain <ip>",
		Short: "'Drain' a node: mark the machine as down",
		Long: `Drain marks the machine as down in the master. The master only accepts
this for machines inside an active maintenance window; cordon the node
first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return svc.Drain(cmd.Context(), machineID(args[0], hostname))
		},
	}

	addHostnameFlag(cmd, &hostname)

	return cmd
}
