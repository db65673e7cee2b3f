package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// newCordonCommand creates the cordon subcommand
func newCordonCommand(a *app) *cobra.Command {
	var (
		hostname        string
		duration        time.Duration
		allowReschedule bool
	)

	cmd := &cobra.Command{
		Use:   "cordon <ip>",
		Short: "'Cordon' a node: schedule it for maintenance",
		Long: `Cordon adds the node to the maintenance schedule with a window starting
now. The schedule is a single document on the master, so this fetches it,
appends a window and posts the whole document back. Cordoning does not take
the node offline; that is what drain is for.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("allow-reschedule") {
				a.cfg.Cordon.AllowReschedule = allowReschedule
			}
			if !cmd.Flags().Changed("duration") {
				duration = a.cfg.Cordon.DefaultDuration
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			return svc.Cordon(cmd.Context(), machineID(args[0], hostname), duration)
		},
	}

	addHostnameFlag(cmd, &hostname)
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "length of the maintenance window, starting now")
	cmd.Flags().BoolVar(&allowReschedule, "allow-reschedule", false, "allow cordoning a machine that is already scheduled")

	return cmd
}
