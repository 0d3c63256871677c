package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// natGatewayPollInterval is how often NAT gateway state is re-checked while
// waiting for it to become available.
const natGatewayPollInterval = 10 * time.Second

// CreateInternetGateway creates an internet gateway and returns its id.
func (c *Client) CreateInternetGateway(ctx context.Context, name string) (string, error) {
	out, err := c.api.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
		TagSpecifications: nameTags(types.ResourceTypeInternetGateway, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create internet gateway %s: %w", name, err)
	}
	return awssdk.ToString(out.InternetGateway.InternetGatewayId), nil
}

// DeleteInternetGateway deletes the internet gateway with the given id.
func (c *Client) DeleteInternetGateway(ctx context.Context, id string) error {
	_, err := c.api.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: awssdk.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete internet gateway %s: %w", id, err)
	}
	return nil
}

// AttachInternetGateway attaches the gateway to the VPC. The attachment is
// its own ledger entry; the returned handle encodes both ids so it can be
// detached without any other state.
func (c *Client) AttachInternetGateway(ctx context.Context, igwID, vpcID string) (string, error) {
	_, err := c.api.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: awssdk.String(igwID),
		VpcId:             awssdk.String(vpcID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to attach internet gateway %s to %s: %w", igwID, vpcID, err)
	}
	return igwID + "/" + vpcID, nil
}

// DetachInternetGateway detaches the gateway encoded in an attachment handle.
func (c *Client) DetachInternetGateway(ctx context.Context, handle string) error {
	igwID, vpcID, ok := strings.Cut(handle, "/")
	if !ok {
		return fmt.Errorf("malformed gateway attachment handle %q", handle)
	}
	_, err := c.api.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
		InternetGatewayId: awssdk.String(igwID),
		VpcId:             awssdk.String(vpcID),
	})
	if err != nil {
		return fmt.Errorf("failed to detach internet gateway %s from %s: %w", igwID, vpcID, err)
	}
	return nil
}

// AllocateElasticIP allocates an address for a NAT gateway and returns the
// allocation id.
func (c *Client) AllocateElasticIP(ctx context.Context, name string) (string, error) {
	out, err := c.api.AllocateAddress(ctx, &ec2.AllocateAddressInput{
		Domain:            types.DomainTypeVpc,
		TagSpecifications: nameTags(types.ResourceTypeElasticIp, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to allocate elastic IP %s: %w", name, err)
	}
	return awssdk.ToString(out.AllocationId), nil
}

// ReleaseElasticIP releases the address with the given allocation id.
func (c *Client) ReleaseElasticIP(ctx context.Context, allocationID string) error {
	_, err := c.api.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
		AllocationId: awssdk.String(allocationID),
	})
	if err != nil {
		return fmt.Errorf("failed to release elastic IP %s: %w", allocationID, err)
	}
	return nil
}

// CreateNATGateway creates a NAT gateway in the given public subnet and
// blocks until it reaches the available state, since routes to a pending
// gateway are rejected.
func (c *Client) CreateNATGateway(ctx context.Context, name, subnetID, allocationID string, timeout time.Duration) (string, error) {
	out, err := c.api.CreateNatGateway(ctx, &ec2.CreateNatGatewayInput{
		SubnetId:          awssdk.String(subnetID),
		AllocationId:      awssdk.String(allocationID),
		TagSpecifications: nameTags(types.ResourceTypeNatgateway, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create NAT gateway %s: %w", name, err)
	}

	natID := awssdk.ToString(out.NatGateway.NatGatewayId)
	if err := c.waitForNATGateway(ctx, natID, timeout); err != nil {
		return natID, err
	}
	return natID, nil
}

// DeleteNATGateway deletes the NAT gateway with the given id. Deletion is
// asynchronous on the provider side; dependent deletes surface as
// DependencyViolation until it finishes and are retried by the unwinder.
func (c *Client) DeleteNATGateway(ctx context.Context, id string) error {
	_, err := c.api.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{
		NatGatewayId: awssdk.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete NAT gateway %s: %w", id, err)
	}
	return nil
}

func (c *Client) waitForNATGateway(ctx context.Context, natID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		out, err := c.api.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
			NatGatewayIds: []string{natID},
		})
		if err == nil && len(out.NatGateways) == 1 {
			switch out.NatGateways[0].State {
			case types.NatGatewayStateAvailable:
				return nil
			case types.NatGatewayStateFailed:
				return fmt.Errorf("NAT gateway %s entered failed state: %s",
					natID, awssdk.ToString(out.NatGateways[0].FailureMessage))
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %v waiting for NAT gateway %s", timeout, natID)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("cancelled waiting for NAT gateway %s: %w", natID, ctx.Err())
		case <-time.After(natGatewayPollInterval):
		}
	}
}
