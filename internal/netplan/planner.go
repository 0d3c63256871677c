package netplan

import "fmt"

// Tier identifies which routing tier a subnet belongs to.
type Tier string

// Subnet tiers.
const (
	TierPublic  Tier = "public"
	TierPrivate Tier = "private"
)

// Band offsets, in units of one subnet-sized block from the parent base.
// Public subnets start at offset 1 (offset 0 is deliberately left unused so
// the parent base itself is never a subnet), private subnets at offset 11.
// The gap between the bands leaves headroom for growing the public tier
// without recomputing the private one.
const (
	publicBandOffset  = 1
	privateBandOffset = 11
)

// SubnetRequest describes one requested subnet.
type SubnetRequest struct {
	Tier     Tier
	Index    int
	Prefix   int
	ZoneHint string
}

// Subnet pairs a request with the block chosen for it.
type Subnet struct {
	Request SubnetRequest
	Block   NetworkBlock
}

// SubnetPlan is the computed layout for one provisioning run. It is built
// once, optionally adjusted by the conflict resolver, and never mutated
// after the orchestrator accepts it.
type SubnetPlan struct {
	Parent  NetworkBlock
	Subnets []Subnet
}

// Plan computes a subnet layout inside parent: publicCount subnets in the
// public band followed by privateCount subnets in the private band, all with
// the given prefix length. Zone hints are assigned round-robin from zones.
func Plan(parent NetworkBlock, publicCount, privateCount, subnetPrefix int, zones []string) (SubnetPlan, error) {
	if subnetPrefix < parent.Prefix || subnetPrefix > 32 {
		return SubnetPlan{}, fmt.Errorf("subnet prefix /%d with parent %s: %w", subnetPrefix, parent, ErrInvalidPrefix)
	}
	if publicCount < 0 || privateCount < 0 {
		return SubnetPlan{}, fmt.Errorf("negative subnet count: %w", ErrInvalidPrefix)
	}

	size := uint64(1) << (32 - subnetPrefix)
	capacity := parent.Size() / size

	// The last subnet of each requested band must fit inside the parent,
	// and the public band must not run into the private band.
	if (privateCount > 0 && uint64(privateBandOffset+privateCount) > capacity) ||
		uint64(publicBandOffset+publicCount) > capacity {
		return SubnetPlan{}, fmt.Errorf("%d public + %d private /%d subnets in %s: %w",
			publicCount, privateCount, subnetPrefix, parent, ErrCapacityExceeded)
	}
	if privateCount > 0 && publicBandOffset+publicCount > privateBandOffset {
		return SubnetPlan{}, fmt.Errorf("public band (%d subnets) collides with private band: %w",
			publicCount, ErrCapacityExceeded)
	}

	plan := SubnetPlan{Parent: parent}
	for i := 0; i < publicCount; i++ {
		plan.Subnets = append(plan.Subnets, Subnet{
			Request: SubnetRequest{Tier: TierPublic, Index: i, Prefix: subnetPrefix, ZoneHint: zone(zones, i)},
			Block:   blockAt(parent, publicBandOffset+i, subnetPrefix),
		})
	}
	for i := 0; i < privateCount; i++ {
		plan.Subnets = append(plan.Subnets, Subnet{
			Request: SubnetRequest{Tier: TierPrivate, Index: i, Prefix: subnetPrefix, ZoneHint: zone(zones, i)},
			Block:   blockAt(parent, privateBandOffset+i, subnetPrefix),
		})
	}
	return plan, nil
}

// Tier returns the subnets belonging to the given tier, in plan order.
func (p SubnetPlan) Tier(tier Tier) []Subnet {
	var out []Subnet
	for _, s := range p.Subnets {
		if s.Request.Tier == tier {
			out = append(out, s)
		}
	}
	return out
}

// Blocks returns all subnet blocks in plan order.
func (p SubnetPlan) Blocks() []NetworkBlock {
	out := make([]NetworkBlock, len(p.Subnets))
	for i, s := range p.Subnets {
		out[i] = s.Block
	}
	return out
}

// Validate verifies the plan invariants: every block inside the parent and
// no two blocks overlapping.
func (p SubnetPlan) Validate() error {
	for i, s := range p.Subnets {
		if !p.Parent.Contains(s.Block) {
			return fmt.Errorf("subnet %s escapes parent %s", s.Block, p.Parent)
		}
		for _, other := range p.Subnets[i+1:] {
			if s.Block.Overlaps(other.Block) {
				return fmt.Errorf("subnets %s and %s overlap", s.Block, other.Block)
			}
		}
	}
	return nil
}

// blockAt returns the subnet-sized block at the given offset from the
// parent base, in units of one subnet.
func blockAt(parent NetworkBlock, offset, prefix int) NetworkBlock {
	size := uint64(1) << (32 - prefix)
	// #nosec G115 -- offset*size fits in 32 bits, checked by Plan
	return NetworkBlock{
		Base:   parent.Base + uint32(uint64(offset)*size),
		Prefix: prefix,
	}
}

func zone(zones []string, i int) string {
	if len(zones) == 0 {
		return ""
	}
	return zones[i%len(zones)]
}
