package cli

import (
	"github.com/spf13/cobra"

	"github.com/clusterops/mesosctl/internal/mesosmock"
	"github.com/clusterops/mesosctl/pkg/httpserver"
)

// newMockMasterCommand creates the mock-master subcommand
func newMockMasterCommand(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "mock-master",
		Short: "Run an in-memory fake master for local development",
		Long: `mock-master serves the maintenance API endpoints against an in-memory
schedule, so the other commands can be tried without a cluster. State is
lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			master := mesosmock.NewMaster(a.logger)
			srv := httpserver.New(listen, master.Router(), a.logger)
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":5050", "address to listen on")

	return cmd
}
