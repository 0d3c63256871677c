package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// IngressRule describes one ingress permission. Exactly one of SourceCIDR
// and SourceGroupID is set; group-to-group rules are what make
// cross-referencing security groups possible.
type IngressRule struct {
	GroupID       string
	Protocol      string
	FromPort      int32
	ToPort        int32
	SourceCIDR    string
	SourceGroupID string
}

// CreateSecurityGroup creates a security group in the VPC and returns its id.
func (c *Client) CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error) {
	out, err := c.api.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:         awssdk.String(name),
		Description:       awssdk.String(description),
		VpcId:             awssdk.String(vpcID),
		TagSpecifications: nameTags(types.ResourceTypeSecurityGroup, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	return awssdk.ToString(out.GroupId), nil
}

// DeleteSecurityGroup deletes the security group with the given id.
func (c *Client) DeleteSecurityGroup(ctx context.Context, id string) error {
	_, err := c.api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupId: awssdk.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete security group %s: %w", id, err)
	}
	return nil
}

// AuthorizeIngress adds an ingress rule and returns a handle encoding the
// full rule, so it can be revoked later with no state beyond the ledger.
// A duplicate error means a previous run already authorized the same rule;
// the handle is derived from the rule alone, so the rule is adopted as-is.
func (c *Client) AuthorizeIngress(ctx context.Context, rule IngressRule) (string, error) {
	if _, err := c.api.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       awssdk.String(rule.GroupID),
		IpPermissions: []types.IpPermission{rule.permission()},
	}); err != nil && !IsDuplicate(err) {
		return "", fmt.Errorf("failed to authorize ingress on %s: %w", rule.GroupID, err)
	}
	return rule.encode(), nil
}

// RevokeIngress removes the rule encoded in an ingress handle. Rules are
// always revoked before the groups they reference are deleted, which is how
// mutually referencing groups become deletable.
func (c *Client) RevokeIngress(ctx context.Context, handle string) error {
	rule, err := decodeIngressRule(handle)
	if err != nil {
		return err
	}
	if _, err := c.api.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       awssdk.String(rule.GroupID),
		IpPermissions: []types.IpPermission{rule.permission()},
	}); err != nil {
		return fmt.Errorf("failed to revoke ingress on %s: %w", rule.GroupID, err)
	}
	return nil
}

func (r IngressRule) permission() types.IpPermission {
	perm := types.IpPermission{
		IpProtocol: awssdk.String(r.Protocol),
		FromPort:   awssdk.Int32(r.FromPort),
		ToPort:     awssdk.Int32(r.ToPort),
	}
	if r.SourceGroupID != "" {
		perm.UserIdGroupPairs = []types.UserIdGroupPair{{GroupId: awssdk.String(r.SourceGroupID)}}
	} else {
		perm.IpRanges = []types.IpRange{{CidrIp: awssdk.String(r.SourceCIDR)}}
	}
	return perm
}

func (r IngressRule) encode() string {
	source := "cidr:" + r.SourceCIDR
	if r.SourceGroupID != "" {
		source = "sg:" + r.SourceGroupID
	}
	return strings.Join([]string{
		r.GroupID, r.Protocol,
		strconv.Itoa(int(r.FromPort)), strconv.Itoa(int(r.ToPort)),
		source,
	}, "|")
}

func decodeIngressRule(handle string) (IngressRule, error) {
	parts := strings.Split(handle, "|")
	if len(parts) != 5 {
		return IngressRule{}, fmt.Errorf("malformed ingress rule handle %q", handle)
	}
	from, err := strconv.Atoi(parts[2])
	if err != nil {
		return IngressRule{}, fmt.Errorf("malformed ingress rule handle %q: %w", handle, err)
	}
	to, err := strconv.Atoi(parts[3])
	if err != nil {
		return IngressRule{}, fmt.Errorf("malformed ingress rule handle %q: %w", handle, err)
	}

	rule := IngressRule{
		GroupID:  parts[0],
		Protocol: parts[1],
		FromPort: int32(from), // #nosec G109
		ToPort:   int32(to),   // #nosec G109
	}
	switch {
	case strings.HasPrefix(parts[4], "sg:"):
		rule.SourceGroupID = strings.TrimPrefix(parts[4], "sg:")
	case strings.HasPrefix(parts[4], "cidr:"):
		rule.SourceCIDR = strings.TrimPrefix(parts[4], "cidr:")
	default:
		return IngressRule{}, fmt.Errorf("malformed ingress rule source %q", parts[4])
	}
	return rule, nil
}
