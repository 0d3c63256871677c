package handlers

import (
	"context"
	"fmt"
	"log"
)

// Destroy handles the destroy command.
//
// It opens the cluster ledger and deletes every recorded resource in
// reverse dependency order. Entries blocked by dependency violations are
// retried across bounded passes; entries whose resources are already gone
// count as deleted. The ledger keeps anything that could not be deleted,
// so the command can be re-run.
func Destroy(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log.Printf("Destroying network topology for cluster: %s", cfg.ClusterName)

	cloud, err := initializeCloud(ctx, cfg)
	if err != nil {
		return err
	}

	led, err := openLedger(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	pctx := newProvisioningContext(ctx, cfg, cloud, led)

	if err := newTeardownProvisioner().Provision(pctx); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Cluster %s network destroyed", cfg.ClusterName)
	return nil
}
