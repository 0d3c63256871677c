package aws

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// RouteTarget is the next hop of a route. Exactly one field is set.
type RouteTarget struct {
	InternetGatewayID string
	NATGatewayID      string
}

// CreateRouteTable creates a route table in the VPC and returns its id.
func (c *Client) CreateRouteTable(ctx context.Context, name, vpcID string) (string, error) {
	out, err := c.api.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
		VpcId:             awssdk.String(vpcID),
		TagSpecifications: nameTags(types.ResourceTypeRouteTable, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create route table %s: %w", name, err)
	}
	return awssdk.ToString(out.RouteTable.RouteTableId), nil
}

// DeleteRouteTable deletes the route table with the given id.
func (c *Client) DeleteRouteTable(ctx context.Context, id string) error {
	_, err := c.api.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{
		RouteTableId: awssdk.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete route table %s: %w", id, err)
	}
	return nil
}

// CreateRoute adds a route to the table. The returned handle encodes the
// table id and destination so the route can be deleted from the ledger alone.
func (c *Client) CreateRoute(ctx context.Context, routeTableID, destinationCIDR string, target RouteTarget) (string, error) {
	input := &ec2.CreateRouteInput{
		RouteTableId:         awssdk.String(routeTableID),
		DestinationCidrBlock: awssdk.String(destinationCIDR),
	}
	switch {
	case target.InternetGatewayID != "":
		input.GatewayId = awssdk.String(target.InternetGatewayID)
	case target.NATGatewayID != "":
		input.NatGatewayId = awssdk.String(target.NATGatewayID)
	default:
		return "", fmt.Errorf("route %s in %s has no target", destinationCIDR, routeTableID)
	}

	if _, err := c.api.CreateRoute(ctx, input); err != nil {
		return "", fmt.Errorf("failed to create route %s in %s: %w", destinationCIDR, routeTableID, err)
	}
	return routeTableID + "|" + destinationCIDR, nil
}

// DeleteRoute removes the route encoded in a route handle.
func (c *Client) DeleteRoute(ctx context.Context, handle string) error {
	routeTableID, destinationCIDR, ok := strings.Cut(handle, "|")
	if !ok {
		return fmt.Errorf("malformed route handle %q", handle)
	}
	_, err := c.api.DeleteRoute(ctx, &ec2.DeleteRouteInput{
		RouteTableId:         awssdk.String(routeTableID),
		DestinationCidrBlock: awssdk.String(destinationCIDR),
	})
	if err != nil {
		return fmt.Errorf("failed to delete route %s from %s: %w", destinationCIDR, routeTableID, err)
	}
	return nil
}

// AssociateRouteTable associates the table with a subnet and returns the
// association id.
func (c *Client) AssociateRouteTable(ctx context.Context, routeTableID, subnetID string) (string, error) {
	out, err := c.api.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
		RouteTableId: awssdk.String(routeTableID),
		SubnetId:     awssdk.String(subnetID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to associate route table %s with subnet %s: %w", routeTableID, subnetID, err)
	}
	return awssdk.ToString(out.AssociationId), nil
}

// DisassociateRouteTable removes the association with the given id.
func (c *Client) DisassociateRouteTable(ctx context.Context, associationID string) error {
	_, err := c.api.DisassociateRouteTable(ctx, &ec2.DisassociateRouteTableInput{
		AssociationId: awssdk.String(associationID),
	})
	if err != nil {
		return fmt.Errorf("failed to disassociate route table association %s: %w", associationID, err)
	}
	return nil
}
