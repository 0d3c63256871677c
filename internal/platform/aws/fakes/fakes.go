// Package fakes provides an in-memory EC2 implementation for tests. It
// tracks enough referential state to produce realistic DependencyViolation
// and NotFound errors, and records every call so tests can assert on what
// was (not) issued.
package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
)

// apiError builds a smithy API error with the given EC2 error code.
func apiError(code, format string, args ...any) error {
	return &smithy.GenericAPIError{Code: code, Message: fmt.Sprintf(format, args...)}
}

type subnet struct {
	vpcID string
	cidr  string
	zone  string
}

type natGateway struct {
	subnetID     string
	allocationID string
	deleted      bool
}

type route struct {
	routeTableID string
	destination  string
}

type ingressRule struct {
	groupID       string
	sourceGroupID string
}

type instance struct {
	subnetID   string
	groupIDs   []string
	terminated bool
}

// FakeEC2 is an in-memory EC2API.
type FakeEC2 struct {
	mu     sync.Mutex
	nextID int

	// Errs injects a failure for the named method. The error is returned
	// once per entry unless Sticky is set for it.
	Errs   map[string]error
	Sticky map[string]bool

	// Calls records every method invocation in order.
	Calls []string

	Vpcs           map[string]string // id -> cidr
	Subnets        map[string]subnet
	Igws           map[string]bool   // id -> exists
	IgwAttachments map[string]string // igwID -> vpcID
	Eips           map[string]bool
	NatGateways    map[string]natGateway
	RouteTables    map[string]string // id -> vpcID
	Routes         map[string]route  // "rtb|dest" -> route
	Associations   map[string]string // assocID -> routeTableID
	Groups         map[string]string // id -> vpcID
	Rules          map[string]ingressRule
	Instances      map[string]instance

	// ExistingVpcCIDRs are returned by DescribeVpcs in addition to VPCs
	// created through the fake, to simulate pre-existing address space.
	ExistingVpcCIDRs []string

	// ExistingSubnetCIDRs are returned by DescribeSubnets in addition to
	// subnets created through the fake.
	ExistingSubnetCIDRs []string
}

// NewFakeEC2 returns an empty fake.
func NewFakeEC2() *FakeEC2 {
	return &FakeEC2{
		Errs:           make(map[string]error),
		Sticky:         make(map[string]bool),
		Vpcs:           make(map[string]string),
		Subnets:        make(map[string]subnet),
		Igws:           make(map[string]bool),
		IgwAttachments: make(map[string]string),
		Eips:           make(map[string]bool),
		NatGateways:    make(map[string]natGateway),
		RouteTables:    make(map[string]string),
		Routes:         make(map[string]route),
		Associations:   make(map[string]string),
		Groups:         make(map[string]string),
		Rules:          make(map[string]ingressRule),
		Instances:      make(map[string]instance),
	}
}

// FailWith makes the named method return err on its next call.
func (f *FakeEC2) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[method] = err
}

// CallCount returns how many times the named method was invoked.
func (f *FakeEC2) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// CreateCallCount returns the total number of create-style calls issued.
func (f *FakeEC2) CreateCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, "Create") || strings.HasPrefix(c, "Run") ||
			strings.HasPrefix(c, "Allocate") || strings.HasPrefix(c, "Attach") ||
			strings.HasPrefix(c, "Associate") || strings.HasPrefix(c, "Authorize") {
			n++
		}
	}
	return n
}

// DeleteCallCount returns the total number of delete-style calls issued.
func (f *FakeEC2) DeleteCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, "Delete") || strings.HasPrefix(c, "Terminate") ||
			strings.HasPrefix(c, "Release") || strings.HasPrefix(c, "Detach") ||
			strings.HasPrefix(c, "Disassociate") || strings.HasPrefix(c, "Revoke") {
			n++
		}
	}
	return n
}

// Empty reports whether no live resources remain.
func (f *FakeEC2) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := len(f.Vpcs) + len(f.Subnets) + len(f.Igws) + len(f.IgwAttachments) +
		len(f.Eips) + len(f.RouteTables) + len(f.Routes) + len(f.Associations) +
		len(f.Groups) + len(f.Rules)
	for _, nat := range f.NatGateways {
		if !nat.deleted {
			live++
		}
	}
	for _, inst := range f.Instances {
		if !inst.terminated {
			live++
		}
	}
	return live == 0
}

// begin records the call and returns any injected error. The caller holds
// the mutex.
func (f *FakeEC2) begin(method string) error {
	f.Calls = append(f.Calls, method)
	if err, ok := f.Errs[method]; ok {
		if !f.Sticky[method] {
			delete(f.Errs, method)
		}
		return err
	}
	return nil
}

func (f *FakeEC2) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%08d", prefix, f.nextID)
}

func (f *FakeEC2) CreateVpc(_ context.Context, params *ec2.CreateVpcInput, _ ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVpc"); err != nil {
		return nil, err
	}
	id := f.newID("vpc")
	f.Vpcs[id] = awssdk.ToString(params.CidrBlock)
	return &ec2.CreateVpcOutput{Vpc: &types.Vpc{
		VpcId:     awssdk.String(id),
		CidrBlock: params.CidrBlock,
	}}, nil
}

func (f *FakeEC2) DeleteVpc(_ context.Context, params *ec2.DeleteVpcInput, _ ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteVpc"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.VpcId)
	if _, ok := f.Vpcs[id]; !ok {
		return nil, apiError("InvalidVpcID.NotFound", "vpc %s not found", id)
	}
	for _, s := range f.Subnets {
		if s.vpcID == id {
			return nil, apiError("DependencyViolation", "vpc %s has subnets", id)
		}
	}
	for _, vpcID := range f.IgwAttachments {
		if vpcID == id {
			return nil, apiError("DependencyViolation", "vpc %s has an attached gateway", id)
		}
	}
	for _, vpcID := range f.Groups {
		if vpcID == id {
			return nil, apiError("DependencyViolation", "vpc %s has security groups", id)
		}
	}
	for _, vpcID := range f.RouteTables {
		if vpcID == id {
			return nil, apiError("DependencyViolation", "vpc %s has route tables", id)
		}
	}
	delete(f.Vpcs, id)
	return &ec2.DeleteVpcOutput{}, nil
}

func (f *FakeEC2) DescribeVpcs(_ context.Context, _ *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeVpcs"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeVpcsOutput{}
	for id, cidr := range f.Vpcs {
		out.Vpcs = append(out.Vpcs, types.Vpc{
			VpcId:     awssdk.String(id),
			CidrBlock: awssdk.String(cidr),
		})
	}
	for i, cidr := range f.ExistingVpcCIDRs {
		out.Vpcs = append(out.Vpcs, types.Vpc{
			VpcId:     awssdk.String(fmt.Sprintf("vpc-existing-%d", i)),
			CidrBlock: awssdk.String(cidr),
		})
	}
	return out, nil
}

func (f *FakeEC2) CreateSubnet(_ context.Context, params *ec2.CreateSubnetInput, _ ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateSubnet"); err != nil {
		return nil, err
	}
	vpcID := awssdk.ToString(params.VpcId)
	if _, ok := f.Vpcs[vpcID]; !ok {
		return nil, apiError("InvalidVpcID.NotFound", "vpc %s not found", vpcID)
	}
	id := f.newID("subnet")
	f.Subnets[id] = subnet{
		vpcID: vpcID,
		cidr:  awssdk.ToString(params.CidrBlock),
		zone:  awssdk.ToString(params.AvailabilityZone),
	}
	return &ec2.CreateSubnetOutput{Subnet: &types.Subnet{
		SubnetId:  awssdk.String(id),
		VpcId:     params.VpcId,
		CidrBlock: params.CidrBlock,
	}}, nil
}

func (f *FakeEC2) DeleteSubnet(_ context.Context, params *ec2.DeleteSubnetInput, _ ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteSubnet"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.SubnetId)
	if _, ok := f.Subnets[id]; !ok {
		return nil, apiError("InvalidSubnetID.NotFound", "subnet %s not found", id)
	}
	for _, nat := range f.NatGateways {
		if nat.subnetID == id && !nat.deleted {
			return nil, apiError("DependencyViolation", "subnet %s has a NAT gateway", id)
		}
	}
	for _, inst := range f.Instances {
		if inst.subnetID == id && !inst.terminated {
			return nil, apiError("DependencyViolation", "subnet %s has instances", id)
		}
	}
	delete(f.Subnets, id)
	return &ec2.DeleteSubnetOutput{}, nil
}

func (f *FakeEC2) DescribeSubnets(_ context.Context, _ *ec2.DescribeSubnetsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeSubnets"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSubnetsOutput{}
	for id, s := range f.Subnets {
		out.Subnets = append(out.Subnets, types.Subnet{
			SubnetId:  awssdk.String(id),
			VpcId:     awssdk.String(s.vpcID),
			CidrBlock: awssdk.String(s.cidr),
		})
	}
	for i, cidr := range f.ExistingSubnetCIDRs {
		out.Subnets = append(out.Subnets, types.Subnet{
			SubnetId:  awssdk.String(fmt.Sprintf("subnet-existing-%d", i)),
			CidrBlock: awssdk.String(cidr),
		})
	}
	return out, nil
}

func (f *FakeEC2) CreateInternetGateway(_ context.Context, _ *ec2.CreateInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateInternetGateway"); err != nil {
		return nil, err
	}
	id := f.newID("igw")
	f.Igws[id] = true
	return &ec2.CreateInternetGatewayOutput{InternetGateway: &types.InternetGateway{
		InternetGatewayId: awssdk.String(id),
	}}, nil
}

func (f *FakeEC2) DeleteInternetGateway(_ context.Context, params *ec2.DeleteInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteInternetGateway"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.InternetGatewayId)
	if !f.Igws[id] {
		return nil, apiError("InvalidInternetGatewayID.NotFound", "igw %s not found", id)
	}
	if _, attached := f.IgwAttachments[id]; attached {
		return nil, apiError("DependencyViolation", "igw %s is still attached", id)
	}
	delete(f.Igws, id)
	return &ec2.DeleteInternetGatewayOutput{}, nil
}

func (f *FakeEC2) AttachInternetGateway(_ context.Context, params *ec2.AttachInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AttachInternetGateway"); err != nil {
		return nil, err
	}
	igwID := awssdk.ToString(params.InternetGatewayId)
	if !f.Igws[igwID] {
		return nil, apiError("InvalidInternetGatewayID.NotFound", "igw %s not found", igwID)
	}
	f.IgwAttachments[igwID] = awssdk.ToString(params.VpcId)
	return &ec2.AttachInternetGatewayOutput{}, nil
}

func (f *FakeEC2) DetachInternetGateway(_ context.Context, params *ec2.DetachInternetGatewayInput, _ ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DetachInternetGateway"); err != nil {
		return nil, err
	}
	igwID := awssdk.ToString(params.InternetGatewayId)
	if _, attached := f.IgwAttachments[igwID]; !attached {
		return nil, apiError("Gateway.NotAttached", "igw %s is not attached", igwID)
	}
	delete(f.IgwAttachments, igwID)
	return &ec2.DetachInternetGatewayOutput{}, nil
}

func (f *FakeEC2) AllocateAddress(_ context.Context, _ *ec2.AllocateAddressInput, _ ...func(*ec2.Options)) (*ec2.AllocateAddressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AllocateAddress"); err != nil {
		return nil, err
	}
	id := f.newID("eipalloc")
	f.Eips[id] = true
	return &ec2.AllocateAddressOutput{AllocationId: awssdk.String(id)}, nil
}

func (f *FakeEC2) ReleaseAddress(_ context.Context, params *ec2.ReleaseAddressInput, _ ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ReleaseAddress"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.AllocationId)
	if !f.Eips[id] {
		return nil, apiError("InvalidAllocationID.NotFound", "allocation %s not found", id)
	}
	for _, nat := range f.NatGateways {
		if nat.allocationID == id && !nat.deleted {
			return nil, apiError("DependencyViolation", "allocation %s is used by a NAT gateway", id)
		}
	}
	delete(f.Eips, id)
	return &ec2.ReleaseAddressOutput{}, nil
}

func (f *FakeEC2) CreateNatGateway(_ context.Context, params *ec2.CreateNatGatewayInput, _ ...func(*ec2.Options)) (*ec2.CreateNatGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateNatGateway"); err != nil {
		return nil, err
	}
	subnetID := awssdk.ToString(params.SubnetId)
	if _, ok := f.Subnets[subnetID]; !ok {
		return nil, apiError("InvalidSubnetID.NotFound", "subnet %s not found", subnetID)
	}
	id := f.newID("nat")
	f.NatGateways[id] = natGateway{
		subnetID:     subnetID,
		allocationID: awssdk.ToString(params.AllocationId),
	}
	return &ec2.CreateNatGatewayOutput{NatGateway: &types.NatGateway{
		NatGatewayId: awssdk.String(id),
		State:        types.NatGatewayStatePending,
	}}, nil
}

func (f *FakeEC2) DeleteNatGateway(_ context.Context, params *ec2.DeleteNatGatewayInput, _ ...func(*ec2.Options)) (*ec2.DeleteNatGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteNatGateway"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.NatGatewayId)
	nat, ok := f.NatGateways[id]
	if !ok || nat.deleted {
		return nil, apiError("NatGatewayNotFound", "NAT gateway %s not found", id)
	}
	nat.deleted = true
	f.NatGateways[id] = nat
	return &ec2.DeleteNatGatewayOutput{}, nil
}

func (f *FakeEC2) DescribeNatGateways(_ context.Context, params *ec2.DescribeNatGatewaysInput, _ ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeNatGateways"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeNatGatewaysOutput{}
	for _, id := range params.NatGatewayIds {
		nat, ok := f.NatGateways[id]
		if !ok {
			continue
		}
		state := types.NatGatewayStateAvailable
		if nat.deleted {
			state = types.NatGatewayStateDeleted
		}
		out.NatGateways = append(out.NatGateways, types.NatGateway{
			NatGatewayId: awssdk.String(id),
			State:        state,
		})
	}
	return out, nil
}

func (f *FakeEC2) CreateRouteTable(_ context.Context, params *ec2.CreateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateRouteTable"); err != nil {
		return nil, err
	}
	id := f.newID("rtb")
	f.RouteTables[id] = awssdk.ToString(params.VpcId)
	return &ec2.CreateRouteTableOutput{RouteTable: &types.RouteTable{
		RouteTableId: awssdk.String(id),
	}}, nil
}

func (f *FakeEC2) DeleteRouteTable(_ context.Context, params *ec2.DeleteRouteTableInput, _ ...func(*ec2.Options)) (*ec2.DeleteRouteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteRouteTable"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.RouteTableId)
	if _, ok := f.RouteTables[id]; !ok {
		return nil, apiError("InvalidRouteTableID.NotFound", "route table %s not found", id)
	}
	for _, rtbID := range f.Associations {
		if rtbID == id {
			return nil, apiError("DependencyViolation", "route table %s has associations", id)
		}
	}
	for key := range f.Routes {
		if strings.HasPrefix(key, id+"|") {
			delete(f.Routes, key) // routes die with their table
		}
	}
	delete(f.RouteTables, id)
	return &ec2.DeleteRouteTableOutput{}, nil
}

func (f *FakeEC2) CreateRoute(_ context.Context, params *ec2.CreateRouteInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateRoute"); err != nil {
		return nil, err
	}
	rtbID := awssdk.ToString(params.RouteTableId)
	if _, ok := f.RouteTables[rtbID]; !ok {
		return nil, apiError("InvalidRouteTableID.NotFound", "route table %s not found", rtbID)
	}
	dest := awssdk.ToString(params.DestinationCidrBlock)
	f.Routes[rtbID+"|"+dest] = route{routeTableID: rtbID, destination: dest}
	return &ec2.CreateRouteOutput{Return: awssdk.Bool(true)}, nil
}

func (f *FakeEC2) DeleteRoute(_ context.Context, params *ec2.DeleteRouteInput, _ ...func(*ec2.Options)) (*ec2.DeleteRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteRoute"); err != nil {
		return nil, err
	}
	key := awssdk.ToString(params.RouteTableId) + "|" + awssdk.ToString(params.DestinationCidrBlock)
	if _, ok := f.Routes[key]; !ok {
		return nil, apiError("InvalidRoute.NotFound", "route %s not found", key)
	}
	delete(f.Routes, key)
	return &ec2.DeleteRouteOutput{}, nil
}

func (f *FakeEC2) AssociateRouteTable(_ context.Context, params *ec2.AssociateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.AssociateRouteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AssociateRouteTable"); err != nil {
		return nil, err
	}
	rtbID := awssdk.ToString(params.RouteTableId)
	if _, ok := f.RouteTables[rtbID]; !ok {
		return nil, apiError("InvalidRouteTableID.NotFound", "route table %s not found", rtbID)
	}
	id := f.newID("rtbassoc")
	f.Associations[id] = rtbID
	return &ec2.AssociateRouteTableOutput{AssociationId: awssdk.String(id)}, nil
}

func (f *FakeEC2) DisassociateRouteTable(_ context.Context, params *ec2.DisassociateRouteTableInput, _ ...func(*ec2.Options)) (*ec2.DisassociateRouteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DisassociateRouteTable"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.AssociationId)
	if _, ok := f.Associations[id]; !ok {
		return nil, apiError("InvalidAssociationID.NotFound", "association %s not found", id)
	}
	delete(f.Associations, id)
	return &ec2.DisassociateRouteTableOutput{}, nil
}

func (f *FakeEC2) CreateSecurityGroup(_ context.Context, params *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateSecurityGroup"); err != nil {
		return nil, err
	}
	id := f.newID("sg")
	f.Groups[id] = awssdk.ToString(params.VpcId)
	return &ec2.CreateSecurityGroupOutput{GroupId: awssdk.String(id)}, nil
}

func (f *FakeEC2) DeleteSecurityGroup(_ context.Context, params *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteSecurityGroup"); err != nil {
		return nil, err
	}
	id := awssdk.ToString(params.GroupId)
	if _, ok := f.Groups[id]; !ok {
		return nil, apiError("InvalidGroup.NotFound", "security group %s not found", id)
	}
	// A group is undeletable while any rule (its own or another group's)
	// references it, and while any instance uses it.
	for _, rule := range f.Rules {
		if rule.groupID == id || rule.sourceGroupID == id {
			return nil, apiError("DependencyViolation", "security group %s is referenced by a rule", id)
		}
	}
	for _, inst := range f.Instances {
		if inst.terminated {
			continue
		}
		for _, gid := range inst.groupIDs {
			if gid == id {
				return nil, apiError("DependencyViolation", "security group %s is used by an instance", id)
			}
		}
	}
	delete(f.Groups, id)
	return &ec2.DeleteSecurityGroupOutput{}, nil
}

func (f *FakeEC2) AuthorizeSecurityGroupIngress(_ context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AuthorizeSecurityGroupIngress"); err != nil {
		return nil, err
	}
	groupID := awssdk.ToString(params.GroupId)
	if _, ok := f.Groups[groupID]; !ok {
		return nil, apiError("InvalidGroup.NotFound", "security group %s not found", groupID)
	}
	key := ruleKey(groupID, params.IpPermissions)
	f.Rules[key] = ingressRule{
		groupID:       groupID,
		sourceGroupID: sourceGroup(params.IpPermissions),
	}
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

func (f *FakeEC2) RevokeSecurityGroupIngress(_ context.Context, params *ec2.RevokeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("RevokeSecurityGroupIngress"); err != nil {
		return nil, err
	}
	groupID := awssdk.ToString(params.GroupId)
	key := ruleKey(groupID, params.IpPermissions)
	if _, ok := f.Rules[key]; !ok {
		return nil, apiError("InvalidPermission.NotFound", "rule not found on %s", groupID)
	}
	delete(f.Rules, key)
	return &ec2.RevokeSecurityGroupIngressOutput{}, nil
}

func (f *FakeEC2) RunInstances(_ context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("RunInstances"); err != nil {
		return nil, err
	}
	subnetID := awssdk.ToString(params.SubnetId)
	if _, ok := f.Subnets[subnetID]; !ok {
		return nil, apiError("InvalidSubnetID.NotFound", "subnet %s not found", subnetID)
	}
	id := f.newID("i")
	f.Instances[id] = instance{subnetID: subnetID, groupIDs: params.SecurityGroupIds}
	return &ec2.RunInstancesOutput{Instances: []types.Instance{{
		InstanceId: awssdk.String(id),
	}}}, nil
}

func (f *FakeEC2) TerminateInstances(_ context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("TerminateInstances"); err != nil {
		return nil, err
	}
	for _, id := range params.InstanceIds {
		inst, ok := f.Instances[id]
		if !ok {
			return nil, apiError("InvalidInstanceID.NotFound", "instance %s not found", id)
		}
		inst.terminated = true
		f.Instances[id] = inst
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

func (f *FakeEC2) DescribeInstances(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeInstances"); err != nil {
		return nil, err
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

func ruleKey(groupID string, perms []types.IpPermission) string {
	parts := []string{groupID}
	for _, p := range perms {
		parts = append(parts, awssdk.ToString(p.IpProtocol),
			fmt.Sprint(awssdk.ToInt32(p.FromPort)), fmt.Sprint(awssdk.ToInt32(p.ToPort)))
		for _, r := range p.IpRanges {
			parts = append(parts, awssdk.ToString(r.CidrIp))
		}
		for _, g := range p.UserIdGroupPairs {
			parts = append(parts, awssdk.ToString(g.GroupId))
		}
	}
	return strings.Join(parts, "|")
}

func sourceGroup(perms []types.IpPermission) string {
	for _, p := range perms {
		for _, g := range p.UserIdGroupPairs {
			return awssdk.ToString(g.GroupId)
		}
	}
	return ""
}
