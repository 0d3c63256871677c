// Package main is the entry point for the vpcforge CLI.
//
// vpcforge provisions an isolated AWS network topology for a compute
// cluster: a VPC with public and private subnets, internet and NAT
// gateways, route tables, security groups and instances. Every created
// resource is recorded in a durable ledger so a run can be resumed,
// re-applied or torn down at any point.
//
// Commands: apply, destroy, plan, version.
//
// For detailed usage information, run:
//
//	vpcforge --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/vpcforge/cmd/vpcforge/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
