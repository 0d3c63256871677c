package provisioning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/config"
	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/provisioning"
)

func TestBuildGraph_StandardTopology(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	g, err := provisioning.BuildGraph(cfg, testPlan(t, cfg))
	require.NoError(t, err)

	// vpc, igw, attachment, 4 subnets, eip, nat, 2 route tables,
	// 2 default routes, 4 associations, 2 security groups, 4 rules.
	assert.Equal(t, 23, g.Len())

	for _, name := range []string{
		"demo-vpc",
		"demo-igw",
		"demo-igw-attachment",
		"demo-public-subnet-0",
		"demo-private-subnet-0",
		"demo-private-subnet-2",
		"demo-nat-eip",
		"demo-nat",
		"demo-public-rt",
		"demo-private-rt",
		"demo-public-default-route",
		"demo-private-default-route",
		"demo-private-rta-2",
		"demo-node-sg",
		"demo-api-sg",
		"demo-node-sg-from-api",
		"demo-api-sg-from-node",
	} {
		_, ok := g.Node(name)
		assert.True(t, ok, "missing node %s", name)
	}

	// The NAT gateway waits for the attachment, its subnet and the address.
	nat, ok := g.Node("demo-nat")
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"demo-igw-attachment", "demo-public-subnet-0", "demo-nat-eip"},
		nat.DependsOn)

	// The private default route points at the NAT gateway node.
	route, ok := g.Node("demo-private-default-route")
	require.True(t, ok)
	assert.Contains(t, route.DependsOn, "demo-nat")

	// The cross-referencing rules depend on both groups.
	rule, ok := g.Node("demo-api-sg-from-node")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"demo-node-sg", "demo-api-sg"}, rule.DependsOn)
}

func TestBuildGraph_PublicOnly(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Network.PublicSubnets = 2
	cfg.Network.PrivateSubnets = 0

	g, err := provisioning.BuildGraph(cfg, testPlan(t, cfg))
	require.NoError(t, err)

	// No private tier means no NAT gateway, no address, no private routing.
	for _, name := range []string{"demo-nat", "demo-nat-eip", "demo-private-rt", "demo-private-default-route"} {
		_, ok := g.Node(name)
		assert.False(t, ok, "unexpected node %s", name)
	}

	_, ok := g.Node("demo-public-subnet-1")
	assert.True(t, ok)
}

func TestBuildGraph_Instances(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ControlPlane = config.NodePool{Count: 3, InstanceType: "t3.medium", ImageID: "ami-1"}
	cfg.Workers = config.NodePool{Count: 2, InstanceType: "t3.large", ImageID: "ami-1"}

	g, err := provisioning.BuildGraph(cfg, testPlan(t, cfg))
	require.NoError(t, err)

	// Control planes spread round-robin over the three private subnets.
	cp0, ok := g.Node("demo-control-plane-0")
	require.True(t, ok)
	assert.Equal(t, ledger.KindInstance, cp0.Kind)
	assert.Contains(t, cp0.DependsOn, "demo-private-subnet-0")
	assert.Contains(t, cp0.DependsOn, "demo-api-sg")

	cp2, ok := g.Node("demo-control-plane-2")
	require.True(t, ok)
	assert.Contains(t, cp2.DependsOn, "demo-private-subnet-2")

	// Workers carry only the node group.
	w1, ok := g.Node("demo-worker-1")
	require.True(t, ok)
	assert.Contains(t, w1.DependsOn, "demo-node-sg")
	assert.NotContains(t, w1.DependsOn, "demo-api-sg")
}

func TestBuildGraph_Validates(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	g, err := provisioning.BuildGraph(cfg, testPlan(t, cfg))
	require.NoError(t, err)
	assert.NoError(t, g.Validate())
}
