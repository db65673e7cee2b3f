package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCommand creates the status subcommand
func newStatusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the maintenance schedule and machine states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			view, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render status: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	return cmd
}
