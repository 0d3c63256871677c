package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/vpcforge/cmd/vpcforge/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command removes every resource recorded in the cluster
// ledger. It deletes resources in reverse dependency order: instances,
// security group rules, groups, NAT gateway, addresses, routing, subnets,
// gateways, and finally the VPC.
func Destroy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the network topology and all recorded resources",
		Long: `Destroy removes all resources recorded in the cluster ledger.

Deletion follows reverse dependency order. Resources that are still in
use are retried across multiple passes, so mutually referencing security
groups and busy subnets resolve on their own. Resources that are already
gone count as deleted.

The ledger keeps any entry that could not be deleted, so the command can
simply be re-run.

Example:
  vpcforge destroy -c vpcforge.yaml

WARNING: This operation is irreversible. All instances will be terminated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: vpcforge.yaml)")

	return cmd
}
