package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/vpcforge/cmd/vpcforge/handlers"
)

// Apply returns the command for provisioning the network topology.
//
// This command handles the complete lifecycle of topology provisioning:
// loading configuration, planning the address layout, executing the
// resource graph, and handing the result off to the configured installer.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: vpcforge.yaml)
//
// Environment variables:
//
//	AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
func Apply() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or resume the network topology",
		Long: `Create or resume the network topology for your cluster.

This command provisions a VPC with public and private subnets, gateways,
routing, security groups and instances on AWS. Every created resource is
recorded in a ledger file next to the configuration, so a re-run skips
what already exists and a failed run can be resumed.

If no config file is specified, it looks for vpcforge.yaml in the current
directory.

Examples:
  # Provision using vpcforge.yaml in current directory
  vpcforge apply

  # Provision using a specific config file
  vpcforge apply -c production.yaml

  # Re-apply after a partial failure
  vpcforge apply`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: vpcforge.yaml)")

	return cmd
}
