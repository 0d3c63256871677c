package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/netplan"
)

// Plan computes and prints the subnet layout the next apply would use.
// Nothing is created: the region is only queried for existing address
// space when conflict resolution is enabled.
func Plan(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	cloud, err := initializeCloud(ctx, cfg)
	if err != nil {
		return err
	}

	led, err := openLedger(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	pctx := newProvisioningContext(ctx, cfg, cloud, led)

	plan, err := resolvePlan(pctx)
	if err != nil {
		return err
	}

	printPlan(cfg, plan)
	return nil
}

// printPlan renders the layout: parent block first, then one line per
// subnet with tier, index, block and zone.
func printPlan(cfg *config.Config, plan netplan.SubnetPlan) {
	fmt.Printf("Cluster %s in %s\n", cfg.ClusterName, cfg.Region)
	fmt.Printf("Parent block: %s\n\n", plan.Parent)

	for _, s := range plan.Subnets {
		zone := s.Request.ZoneHint
		if zone == "" {
			zone = "-"
		}
		fmt.Printf("  %-8s %2d  %-18s %s\n", s.Request.Tier, s.Request.Index, s.Block, zone)
	}
}
