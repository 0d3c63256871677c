// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/installer"
	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/metrics"
	"github.com/imamik/vpcforge/internal/netplan"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/provisioning"
	"github.com/imamik/vpcforge/internal/provisioning/teardown"
	"github.com/imamik/vpcforge/internal/util/naming"
)

const defaultConfigFile = "vpcforge.yaml"

// Provisioner interface for testing - matches teardown.Provisioner.
type Provisioner interface {
	Provision(ctx *provisioning.Context) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads config from file.
	loadConfigFile = config.LoadFile

	// settingsFromEnv reads provider settings from the environment.
	settingsFromEnv = config.FromEnv

	// newCloudClient creates the EC2-backed provider client.
	newCloudClient = func(ctx context.Context, opts aws.Options) (provisioning.CloudProvider, error) {
		return aws.NewClient(ctx, opts)
	}

	// openLedger opens the durable resource ledger.
	openLedger = ledger.Open

	// newProvisioningContext creates a new provisioning context.
	newProvisioningContext = provisioning.NewContext

	// newTeardownProvisioner creates the provisioner used by destroy and by
	// the unwind path of a failed apply.
	newTeardownProvisioner = func() Provisioner {
		return teardown.NewProvisioner()
	}

	// newInstallerRunner creates the runner for the installer hand-off.
	newInstallerRunner = func() installer.Runner {
		return installer.NewExecRunner()
	}

	// serveMetrics exposes the prometheus endpoint when configured.
	serveMetrics = metrics.Serve
)

// Apply provisions the network topology described by the configuration.
//
// This function orchestrates the complete provisioning workflow:
//  1. Loads and validates the configuration
//  2. Initializes the EC2 client from AWS_* environment settings
//  3. Opens the resource ledger, resuming any previous run
//  4. Computes the subnet plan, resolving address conflicts if enabled
//  5. Executes the resource graph; any failure unwinds what was created
//  6. Hands the finished topology off to the configured installer
//
// Re-running apply over a complete ledger issues no create calls; the
// recorded handles are adopted and the installer hand-off repeats.
func Apply(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log.Printf("Applying network topology for cluster: %s", cfg.ClusterName)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := serveMetrics(cfg.MetricsAddr); err != nil {
				log.Printf("metrics endpoint stopped: %v", err)
			}
		}()
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

	graph, err := provisioning.BuildGraph(cfg, plan)
	if err != nil {
		return fmt.Errorf("failed to build resource graph: %w", err)
	}

	orch := provisioning.NewOrchestrator(provisioning.WithUnwind(func(c *provisioning.Context) error {
		return newTeardownProvisioner().Provision(c)
	}))
	if err := orch.Run(pctx, graph); err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}

	if err := installer.Handoff(ctx, newInstallerRunner(), cfg, pctx.State); err != nil {
		return err
	}

	printApplySuccess(cfg, led)
	return nil
}

// loadConfig loads and validates the configuration. If configPath is empty
// it looks for vpcforge.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = defaultConfigFile
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// initializeCloud creates the EC2 client. The config region wins over the
// environment; credentials follow the SDK default chain unless static keys
// are set.
func initializeCloud(ctx context.Context, cfg *config.Config) (provisioning.CloudProvider, error) {
	settings, err := settingsFromEnv()
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = settings.Region
	}

	cloud, err := newCloudClient(ctx, aws.Options{
		Region:          region,
		Profile:         settings.Profile,
		AccessKeyID:     settings.AccessKeyID,
		SecretAccessKey: settings.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize EC2 client: %w", err)
	}
	return cloud, nil
}

// resolvePlan computes the subnet layout for this run. A previous run pins
// the parent block through its ledger record, so a re-apply keeps a stable
// layout even when conflict resolution would pick a different block today.
func resolvePlan(ctx *provisioning.Context) (netplan.SubnetPlan, error) {
	cfg := ctx.Config

	parent, err := netplan.ParseBlock(cfg.Network.CIDR)
	if err != nil {
		return netplan.SubnetPlan{}, fmt.Errorf("invalid network block %q: %w", cfg.Network.CIDR, err)
	}

	if rec, ok := ctx.Ledger.Lookup(naming.VPC(cfg.ClusterName)); ok {
		if cidr := rec.Attrs["cidr"]; cidr != "" {
			parent, err = netplan.ParseBlock(cidr)
			if err != nil {
				return netplan.SubnetPlan{}, fmt.Errorf("ledger holds invalid network block %q: %w", cidr, err)
			}
		}
	} else if cfg.Network.ResolveConflictsEnabled() {
		parent, err = resolveParentConflicts(ctx, parent)
		if err != nil {
			return netplan.SubnetPlan{}, err
		}
	}

	plan, err := netplan.Plan(parent, cfg.Network.PublicSubnets, cfg.Network.PrivateSubnets,
		cfg.Network.SubnetPrefix, cfg.Network.Zones)
	if err != nil {
		return netplan.SubnetPlan{}, fmt.Errorf("failed to plan subnets: %w", err)
	}
	if cfg.Network.ResolveConflictsEnabled() {
		plan, err = resolveSubnetConflicts(ctx, plan)
		if err != nil {
			return netplan.SubnetPlan{}, err
		}
	}
	if err := plan.Validate(); err != nil {
		return netplan.SubnetPlan{}, fmt.Errorf("subnet plan invalid: %w", err)
	}
	return plan, nil
}

// resolveParentConflicts checks the candidate block against the address
// space already present in the region and picks an alternative on overlap.
func resolveParentConflicts(ctx *provisioning.Context, parent netplan.NetworkBlock) (netplan.NetworkBlock, error) {
	existing, err := ctx.Cloud.ListVPCBlocks(ctx)
	if err != nil {
		return netplan.NetworkBlock{}, fmt.Errorf("failed to inspect existing address space: %w", err)
	}

	resolved, err := netplan.NewResolver().ResolveParent(parent, existing)
	if err != nil {
		return netplan.NetworkBlock{}, err
	}
	if resolved != parent {
		log.Printf("Network block %s overlaps an existing VPC, using %s instead", parent, resolved)
	}
	return resolved, nil
}

// resolveSubnetConflicts relocates planned subnets that collide with subnets
// already present in the region, such as ones added by hand inside an
// adopted parent block. Subnets recorded in the ledger are ours and do not
// count as conflicts, so a re-apply keeps its layout.
func resolveSubnetConflicts(ctx *provisioning.Context, plan netplan.SubnetPlan) (netplan.SubnetPlan, error) {
	existing, err := ctx.Cloud.ListSubnetBlocks(ctx)
	if err != nil {
		return netplan.SubnetPlan{}, fmt.Errorf("failed to inspect existing subnets: %w", err)
	}

	owned := ownedSubnetBlocks(ctx.Ledger)
	foreign := existing[:0]
	for _, b := range existing {
		if !b.IsDuplicateOf(owned) {
			foreign = append(foreign, b)
		}
	}

	resolved, err := netplan.NewResolver().ResolveSubnets(plan, foreign)
	if err != nil {
		return netplan.SubnetPlan{}, err
	}
	for i, s := range resolved.Subnets {
		if s.Block != plan.Subnets[i].Block {
			log.Printf("Subnet block %s overlaps an existing subnet, using %s instead",
				plan.Subnets[i].Block, s.Block)
		}
	}
	return resolved, nil
}

// ownedSubnetBlocks returns the subnet blocks recorded by previous runs.
func ownedSubnetBlocks(led *ledger.Store) []netplan.NetworkBlock {
	var blocks []netplan.NetworkBlock
	for _, rec := range led.ByKind(ledger.KindSubnet) {
		block, err := netplan.ParseBlock(rec.Attrs["cidr"])
		if err != nil {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// printApplySuccess lists every provisioned resource handle from the ledger.
func printApplySuccess(cfg *config.Config, led *ledger.Store) {
	fmt.Printf("\nNetwork topology for %s is ready.\n", cfg.ClusterName)
	if cfg.LedgerPath != "" {
		fmt.Printf("Ledger saved to: %s\n", cfg.LedgerPath)
	}
	fmt.Println()
	for _, rec := range led.All() {
		fmt.Printf("  %-12s %-28s %s\n", rec.Kind, rec.LogicalName, rec.Handle)
	}
}
