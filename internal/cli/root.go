// Package cli wires the mesosctl command tree. Each subcommand maps one
// operator verb onto the maintenance service; the tool never checks that
// verbs arrive in order, the master owns that state.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/clusterops/mesosctl/internal/config"
	"github.com/clusterops/mesosctl/internal/logger"
	"github.com/clusterops/mesosctl/internal/model"
	"github.com/clusterops/mesosctl/internal/repository"
	"github.com/clusterops/mesosctl/internal/service"
)

// app carries the pieces shared by all subcommands, built once in the
// persistent pre-run.
type app struct {
	configPath string
	masterURL  string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	svc    service.MaintenanceService
}

// NewRootCommand creates the mesosctl command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "mesosctl",
		Short: "Work with the Mesos maintenance API of a DC/OS cluster",
		Long: `mesosctl sequences node maintenance against a Mesos master:

  cordon    schedule a node for maintenance
  drain     mark a scheduled node as down
  up        mark a node as up again after maintenance
  uncordon  remove a node from the maintenance schedule

The usual order is cordon, drain, do the maintenance, up, uncordon. mesosctl
does not enforce it; the master rejects steps taken out of order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to an optional configuration file")
	pf.StringVar(&a.masterURL, "master", "", fmt.Sprintf("URL for the Mesos master (default %s)", config.DefaultMasterAddress))
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newCordonCommand(a),
		newUncordonCommand(a),
		newDrainCommand(a),
		newUpCommand(a),
		newStatusCommand(a),
		newMockMasterCommand(a),
	)

	return cmd
}

// initialize loads configuration, applies flag overrides and builds the
// logger. The maintenance service itself is built lazily so subcommands can
// still adjust config first.
func (a *app) initialize() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.masterURL != "" {
		cfg.Master.Address = a.masterURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.NewWithLevel(logger.ParseLevel(cfg.Log.Level))
	return nil
}

// service builds the maintenance service on first use
func (a *app) service() (service.MaintenanceService, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	repo, err := repository.NewMesosRepository(a.cfg.Master, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create master client: %w", err)
	}

	a.svc = service.NewMaintenanceService(repo, a.cfg.Cordon.AllowReschedule, a.logger)
	return a.svc, nil
}

// addHostnameFlag registers the shared --hostname flag for commands taking
// a machine argument.
func addHostnameFlag(cmd *cobra.Command, hostname *string) {
	cmd.Flags().StringVar(hostname, "hostname", "", "hostname of the node (if different from IP)")
}

// machineID builds the machine identity from the positional IP and the
// optional hostname override. The hostname is assumed equal to the IP
// otherwise; mesosctl does not resolve or validate either.
func machineID(ip, hostname string) model.MachineID {
	return model.NewMachineID(ip, hostname)
}
