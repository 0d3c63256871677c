package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/vpcforge/internal/netplan"
)

// CreateVPC creates the parent network block and returns its id.
func (c *Client) CreateVPC(ctx context.Context, name, cidr string) (string, error) {
	out, err := c.api.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         awssdk.String(cidr),
		TagSpecifications: nameTags(types.ResourceTypeVpc, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create VPC %s (%s): %w", name, cidr, err)
	}
	return awssdk.ToString(out.Vpc.VpcId), nil
}

// DeleteVPC deletes the VPC with the given id.
func (c *Client) DeleteVPC(ctx context.Context, id string) error {
	_, err := c.api.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: awssdk.String(id)})
	if err != nil {
		return fmt.Errorf("failed to delete VPC %s: %w", id, err)
	}
	return nil
}

// ListVPCBlocks returns the CIDR blocks of every VPC visible in the region.
// The conflict resolver checks candidate blocks against this set.
func (c *Client) ListVPCBlocks(ctx context.Context) ([]netplan.NetworkBlock, error) {
	var blocks []netplan.NetworkBlock
	var nextToken *string
	for {
		out, err := c.api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("failed to list VPCs: %w", err)
		}
		for _, vpc := range out.Vpcs {
			block, err := netplan.ParseBlock(awssdk.ToString(vpc.CidrBlock))
			if err != nil {
				continue // skip IPv6-only or malformed entries
			}
			blocks = append(blocks, block)
		}
		if out.NextToken == nil {
			return blocks, nil
		}
		nextToken = out.NextToken
	}
}

// ListSubnetBlocks returns the CIDR blocks of every subnet visible in the
// region. The conflict resolver checks planned subnet blocks against this
// set before anything is created.
func (c *Client) ListSubnetBlocks(ctx context.Context) ([]netplan.NetworkBlock, error) {
	var blocks []netplan.NetworkBlock
	var nextToken *string
	for {
		out, err := c.api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("failed to list subnets: %w", err)
		}
		for _, s := range out.Subnets {
			block, err := netplan.ParseBlock(awssdk.ToString(s.CidrBlock))
			if err != nil {
				continue // skip IPv6-only or malformed entries
			}
			blocks = append(blocks, block)
		}
		if out.NextToken == nil {
			return blocks, nil
		}
		nextToken = out.NextToken
	}
}

// CreateSubnet creates a subnet inside the VPC and returns its id.
func (c *Client) CreateSubnet(ctx context.Context, name, vpcID, cidr, zone string) (string, error) {
	input := &ec2.CreateSubnetInput{
		VpcId:             awssdk.String(vpcID),
		CidrBlock:         awssdk.String(cidr),
		TagSpecifications: nameTags(types.ResourceTypeSubnet, name),
	}
	if zone != "" {
		input.AvailabilityZone = awssdk.String(zone)
	}
	out, err := c.api.CreateSubnet(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to create subnet %s (%s): %w", name, cidr, err)
	}
	return awssdk.ToString(out.Subnet.SubnetId), nil
}

// DeleteSubnet deletes the subnet with the given id.
func (c *Client) DeleteSubnet(ctx context.Context, id string) error {
	_, err := c.api.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: awssdk.String(id)})
	if err != nil {
		return fmt.Errorf("failed to delete subnet %s: %w", id, err)
	}
	return nil
}
