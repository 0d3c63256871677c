package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/vpcforge/cmd/vpcforge/handlers"
)

// Plan returns the plan command.
//
// The plan command computes and prints the subnet layout the next apply
// would use, including conflict resolution against address space already
// present in the region. It creates nothing.
func Plan() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the subnet layout without creating anything",
		Long: `Plan computes the subnet layout the next apply would use.

The parent block and each subnet are printed with their tier and zone.
When conflict resolution is enabled, the candidate block is checked
against the VPCs already present in the region, exactly as apply would.

Example:
  vpcforge plan -c vpcforge.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: vpcforge.yaml)")

	return cmd
}
