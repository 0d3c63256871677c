// Package installer hands a provisioned network off to an external cluster
// installer. The installer is a black box: it receives the resource ids
// through environment variables and takes over from there.
package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/provisioning"
)

// Runner executes the installer process. Extracted so tests can capture
// the invocation instead of spawning a real process.
type Runner interface {
	Run(ctx context.Context, command string, args, env []string) error
}

// ExecRunner runs the installer as a child process with inherited output
// streams.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, command string, args, env []string) error {
	cmd := exec.CommandContext(ctx, command, args...) // #nosec G204
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("installer %s failed: %w", command, err)
	}
	return nil
}

// Handoff invokes the configured installer with the provisioned resource
// ids in its environment. A config without an installer command is a
// no-op.
func Handoff(ctx context.Context, r Runner, cfg *config.Config, state *provisioning.State) error {
	if cfg.Installer.Command == "" {
		return nil
	}

	env := []string{
		"VPCFORGE_CLUSTER=" + cfg.ClusterName,
		"VPCFORGE_REGION=" + cfg.Region,
		"VPCFORGE_VPC_ID=" + state.VPCID(),
		"VPCFORGE_SUBNET_IDS=" + encodeIDs(state.SubnetIDs()),
		"VPCFORGE_INSTANCE_IDS=" + encodeIDs(state.InstanceIDs()),
	}
	if nat := state.NATGatewayID(); nat != "" {
		env = append(env, "VPCFORGE_NAT_GATEWAY_ID="+nat)
	}

	return r.Run(ctx, cfg.Installer.Command, cfg.Installer.Args, env)
}

// encodeIDs renders a name-to-id map as a stable "name=id,name=id" list.
func encodeIDs(ids map[string]string) string {
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+ids[name])
	}
	return strings.Join(pairs, ",")
}
