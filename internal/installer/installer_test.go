package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/provisioning"
)

type captureRunner struct {
	command string
	args    []string
	env     []string
	called  bool
}

func (r *captureRunner) Run(_ context.Context, command string, args, env []string) error {
	r.called = true
	r.command = command
	r.args = args
	r.env = env
	return nil
}

func TestHandoff(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		ClusterName: "demo",
		Region:      "eu-central-1",
		Installer: config.InstallerConfig{
			Command: "cluster-install",
			Args:    []string{"--wait"},
		},
	}

	state := provisioning.NewState()
	state.SetVPCID("vpc-1")
	state.SetNATGatewayID("nat-1")
	state.SetSubnetID("demo-public-subnet-0", "subnet-1")
	state.SetSubnetID("demo-private-subnet-0", "subnet-2")
	state.SetInstanceID("demo-worker-0", "i-1")

	r := &captureRunner{}
	require.NoError(t, Handoff(context.Background(), r, cfg, state))

	assert.True(t, r.called)
	assert.Equal(t, "cluster-install", r.command)
	assert.Equal(t, []string{"--wait"}, r.args)
	assert.Contains(t, r.env, "VPCFORGE_CLUSTER=demo")
	assert.Contains(t, r.env, "VPCFORGE_VPC_ID=vpc-1")
	assert.Contains(t, r.env, "VPCFORGE_NAT_GATEWAY_ID=nat-1")
	assert.Contains(t, r.env,
		"VPCFORGE_SUBNET_IDS=demo-private-subnet-0=subnet-2,demo-public-subnet-0=subnet-1")
	assert.Contains(t, r.env, "VPCFORGE_INSTANCE_IDS=demo-worker-0=i-1")
}

func TestHandoff_NoCommandIsNoOp(t *testing.T) {
	t.Parallel()

	r := &captureRunner{}
	err := Handoff(context.Background(), r, &config.Config{ClusterName: "demo"}, provisioning.NewState())
	require.NoError(t, err)
	assert.False(t, r.called)
}
