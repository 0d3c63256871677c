package provisioning

import (
	"sync"

	"github.com/imamik/vpcforge/internal/netplan"
)

// State holds the shared results of graph execution. It is progressively
// populated as nodes complete and read by dependent nodes; the mutex keeps
// it safe for nodes running concurrently within a wave.
type State struct {
	mu sync.Mutex

	vpcID             string
	internetGatewayID string
	allocationID      string
	natGatewayID      string

	subnetIDs        map[string]string       // logical name -> subnet id
	routeTableIDs    map[netplan.Tier]string // tier -> route table id
	securityGroupIDs map[string]string       // role -> security group id
	instanceIDs      map[string]string       // logical name -> instance id
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		subnetIDs:        make(map[string]string),
		routeTableIDs:    make(map[netplan.Tier]string),
		securityGroupIDs: make(map[string]string),
		instanceIDs:      make(map[string]string),
	}
}

// SetVPCID records the VPC id.
func (s *State) SetVPCID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vpcID = id
}

// VPCID returns the VPC id, or "" if the VPC node has not run.
func (s *State) VPCID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vpcID
}

// SetInternetGatewayID records the internet gateway id.
func (s *State) SetInternetGatewayID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.internetGatewayID = id
}

// InternetGatewayID returns the internet gateway id.
func (s *State) InternetGatewayID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internetGatewayID
}

// SetAllocationID records the elastic IP allocation id.
func (s *State) SetAllocationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocationID = id
}

// AllocationID returns the elastic IP allocation id.
func (s *State) AllocationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocationID
}

// SetNATGatewayID records the NAT gateway id.
func (s *State) SetNATGatewayID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.natGatewayID = id
}

// NATGatewayID returns the NAT gateway id.
func (s *State) NATGatewayID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.natGatewayID
}

// SetSubnetID records a subnet id under its logical name.
func (s *State) SetSubnetID(logicalName, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subnetIDs[logicalName] = id
}

// SubnetID returns the subnet id for a logical name, or "".
func (s *State) SubnetID(logicalName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subnetIDs[logicalName]
}

// SubnetIDs returns a copy of the logical name to subnet id map.
func (s *State) SubnetIDs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.subnetIDs))
	for k, v := range s.subnetIDs {
		out[k] = v
	}
	return out
}

// SetRouteTableID records the route table id for a tier.
func (s *State) SetRouteTableID(tier netplan.Tier, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeTableIDs[tier] = id
}

// RouteTableID returns the route table id for a tier, or "".
func (s *State) RouteTableID(tier netplan.Tier) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routeTableIDs[tier]
}

// SetSecurityGroupID records a security group id under its role.
func (s *State) SetSecurityGroupID(role, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.securityGroupIDs[role] = id
}

// SecurityGroupID returns the security group id for a role, or "".
func (s *State) SecurityGroupID(role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.securityGroupIDs[role]
}

// SetInstanceID records an instance id under its logical name.
func (s *State) SetInstanceID(logicalName, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instanceIDs[logicalName] = id
}

// InstanceIDs returns a copy of the logical name to instance id map.
func (s *State) InstanceIDs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.instanceIDs))
	for k, v := range s.instanceIDs {
		out[k] = v
	}
	return out
}
