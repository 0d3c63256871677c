package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/platform/aws"
	"github.com/imamik/vpcforge/internal/platform/aws/fakes"
	"github.com/imamik/vpcforge/internal/provisioning"
)

func planContext(cfg *config.Config, fake *fakes.FakeEC2, led *ledger.Store) *provisioning.Context {
	return provisioning.NewContext(context.Background(), cfg, aws.NewWithAPI(fake), led)
}

func TestPlan(t *testing.T) {
	fake := fakes.NewFakeEC2()
	stubFactories(t, testHandlerConfig(), fake, ledger.NewMemory())

	require.NoError(t, Plan(context.Background(), ""))
	assert.Equal(t, 0, fake.CreateCallCount(), "plan must not create anything")
}

func TestResolvePlan_UsesLedgerBlock(t *testing.T) {
	led := ledger.NewMemory()
	require.NoError(t, led.Record(ledger.Record{
		LogicalName: "demo-vpc",
		Kind:        ledger.KindVPC,
		Handle:      "vpc-1",
		Attrs:       map[string]string{"cidr": "10.42.0.0/16"},
	}))

	plan, err := resolvePlan(planContext(testHandlerConfig(), fakes.NewFakeEC2(), led))
	require.NoError(t, err)
	assert.Equal(t, "10.42.0.0/16", plan.Parent.String())
	assert.Equal(t, "10.42.1.0/24", plan.Subnets[0].Block.String())
}

func TestResolvePlan_ResolvesConflict(t *testing.T) {
	fake := fakes.NewFakeEC2()
	fake.ExistingVpcCIDRs = []string{"172.16.0.0/16"}

	plan, err := resolvePlan(planContext(testHandlerConfig(), fake, ledger.NewMemory()))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/16", plan.Parent.String())
}

func TestResolvePlan_DisabledKeepsCandidate(t *testing.T) {
	fake := fakes.NewFakeEC2()
	fake.ExistingVpcCIDRs = []string{"172.16.0.0/16"}

	cfg := testHandlerConfig()
	off := false
	cfg.Network.ResolveConflicts = &off

	plan, err := resolvePlan(planContext(cfg, fake, ledger.NewMemory()))
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.0/16", plan.Parent.String())
	assert.Equal(t, 0, fake.CallCount("DescribeVpcs"))
}

func TestResolvePlan_RelocatesConflictingSubnet(t *testing.T) {
	led := ledger.NewMemory()
	require.NoError(t, led.Record(ledger.Record{
		LogicalName: "demo-vpc",
		Kind:        ledger.KindVPC,
		Handle:      "vpc-1",
		Attrs:       map[string]string{"cidr": "172.16.0.0/16"},
	}))

	// A subnet someone added by hand inside the adopted parent block,
	// squatting on the first private slot.
	fake := fakes.NewFakeEC2()
	fake.ExistingSubnetCIDRs = []string{"172.16.11.0/24"}

	plan, err := resolvePlan(planContext(testHandlerConfig(), fake, led))
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	assert.Equal(t, "172.16.1.0/24", plan.Subnets[0].Block.String(), "public subnet must not move")
	assert.Equal(t, "172.16.0.0/24", plan.Subnets[1].Block.String(), "conflicting subnet moves to the first free slot")
}

func TestResolvePlan_KeepsOwnSubnets(t *testing.T) {
	led := ledger.NewMemory()
	require.NoError(t, led.Record(ledger.Record{
		LogicalName: "demo-vpc",
		Kind:        ledger.KindVPC,
		Handle:      "vpc-1",
		Attrs:       map[string]string{"cidr": "172.16.0.0/16"},
	}))
	require.NoError(t, led.Record(ledger.Record{
		LogicalName: "demo-private-subnet-0",
		Kind:        ledger.KindSubnet,
		Handle:      "subnet-1",
		Attrs:       map[string]string{"cidr": "172.16.11.0/24"},
	}))

	// The region reports our own subnet back; it must not count as a
	// conflict on re-apply.
	fake := fakes.NewFakeEC2()
	fake.ExistingSubnetCIDRs = []string{"172.16.11.0/24"}

	plan, err := resolvePlan(planContext(testHandlerConfig(), fake, led))
	require.NoError(t, err)
	assert.Equal(t, "172.16.11.0/24", plan.Subnets[1].Block.String(), "re-apply must keep its layout")
}

func TestResolvePlan_InvalidBlock(t *testing.T) {
	cfg := testHandlerConfig()
	cfg.Network.CIDR = "not-a-cidr"

	_, err := resolvePlan(planContext(cfg, fakes.NewFakeEC2(), ledger.NewMemory()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid network block")
}
