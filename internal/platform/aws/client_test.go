package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/ledger"
	"github.com/imamik/vpcforge/internal/platform/aws/fakes"
)

func TestVPCLifecycle(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	c := NewWithAPI(fake)
	ctx := context.Background()

	vpcID, err := c.CreateVPC(ctx, "test-vpc", "10.0.0.0/16")
	require.NoError(t, err)
	assert.NotEmpty(t, vpcID)

	blocks, err := c.ListVPCBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "10.0.0.0/16", blocks[0].String())

	require.NoError(t, c.DeleteVPC(ctx, vpcID))
	assert.True(t, fake.Empty())
}

func TestListVPCBlocksIncludesForeignVPCs(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	fake.ExistingVpcCIDRs = []string{"172.16.0.0/16", "192.168.0.0/24"}
	c := NewWithAPI(fake)

	blocks, err := c.ListVPCBlocks(context.Background())
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestNATGatewayWaitsForAvailable(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	c := NewWithAPI(fake)
	ctx := context.Background()

	vpcID, err := c.CreateVPC(ctx, "v", "10.0.0.0/16")
	require.NoError(t, err)
	subnetID, err := c.CreateSubnet(ctx, "s", vpcID, "10.0.1.0/24", "us-east-1a")
	require.NoError(t, err)
	allocID, err := c.AllocateElasticIP(ctx, "eip")
	require.NoError(t, err)

	natID, err := c.CreateNATGateway(ctx, "nat", subnetID, allocID, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, natID)
	// The waiter polled at least once.
	assert.GreaterOrEqual(t, fake.CallCount("DescribeNatGateways"), 1)
}

func TestIngressRuleHandleRoundTrip(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	c := NewWithAPI(fake)
	ctx := context.Background()

	vpcID, err := c.CreateVPC(ctx, "v", "10.0.0.0/16")
	require.NoError(t, err)
	sgID, err := c.CreateSecurityGroup(ctx, "api", "api nodes", vpcID)
	require.NoError(t, err)
	otherID, err := c.CreateSecurityGroup(ctx, "workers", "worker nodes", vpcID)
	require.NoError(t, err)

	// A group-to-group rule blocks deleting the referenced group.
	handle, err := c.AuthorizeIngress(ctx, IngressRule{
		GroupID:       sgID,
		Protocol:      "tcp",
		FromPort:      6443,
		ToPort:        6443,
		SourceGroupID: otherID,
	})
	require.NoError(t, err)

	err = c.DeleteSecurityGroup(ctx, otherID)
	require.Error(t, err)
	assert.True(t, IsDependencyViolation(err))

	// Revoking via the handle alone unblocks the delete.
	require.NoError(t, c.RevokeIngress(ctx, handle))
	require.NoError(t, c.DeleteSecurityGroup(ctx, otherID))
	require.NoError(t, c.DeleteSecurityGroup(ctx, sgID))
}

func TestAuthorizeIngressDuplicateIsAdopted(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	c := NewWithAPI(fake)
	ctx := context.Background()

	vpcID, err := c.CreateVPC(ctx, "v", "10.0.0.0/16")
	require.NoError(t, err)
	sgID, err := c.CreateSecurityGroup(ctx, "api", "api nodes", vpcID)
	require.NoError(t, err)

	rule := IngressRule{
		GroupID:    sgID,
		Protocol:   "tcp",
		FromPort:   6443,
		ToPort:     6443,
		SourceCIDR: "0.0.0.0/0",
	}
	first, err := c.AuthorizeIngress(ctx, rule)
	require.NoError(t, err)

	// An interrupted run re-authorizes a rule that already exists. The
	// rule is adopted and yields the same handle.
	fake.FailWith("AuthorizeSecurityGroupIngress", &smithy.GenericAPIError{
		Code: "InvalidPermission.Duplicate", Message: "rule already exists",
	})
	second, err := c.AuthorizeIngress(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeleteResourceDispatch(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeEC2()
	c := NewWithAPI(fake)
	ctx := context.Background()

	vpcID, err := c.CreateVPC(ctx, "v", "10.0.0.0/16")
	require.NoError(t, err)
	igwID, err := c.CreateInternetGateway(ctx, "igw")
	require.NoError(t, err)
	attachHandle, err := c.AttachInternetGateway(ctx, igwID, vpcID)
	require.NoError(t, err)

	require.NoError(t, c.DeleteResource(ctx, ledger.KindGatewayAttachment, attachHandle))
	require.NoError(t, c.DeleteResource(ctx, ledger.KindInternetGateway, igwID))
	require.NoError(t, c.DeleteResource(ctx, ledger.KindVPC, vpcID))
	assert.True(t, fake.Empty())

	err = c.DeleteResource(ctx, ledger.Kind("bogus"), "x")
	require.Error(t, err)
}

func TestDeleteResourceNotFoundClassifies(t *testing.T) {
	t.Parallel()

	c := NewWithAPI(fakes.NewFakeEC2())
	err := c.DeleteResource(context.Background(), ledger.KindSubnet, "subnet-missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
