package cli

import (
	"github.com/spf13/cobra"
)

// newUncordonCommand creates the uncordon subcommand
func newUncordonCommand(a *app) *cobra.Command {
	var hostname string

	cmd := &cobra.Command{
		Use:   "uncordon <ip>",
		Short: "'Uncordon' a node: remove it from the maintenance schedule",
		Long: `Uncordon strips the node from every maintenance window, whether the window
is active or not, and posts the filtered schedule back. A node that is not
scheduled at all is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return svc.Uncordon(cmd.Context(), machineID(args[0], hostname))
		},
	}

	addHostnameFlag(cmd, &hostname)

	return cmd
}
