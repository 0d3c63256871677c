package netplan

import (
	"fmt"
	"strings"
)

// defaultMaxAttempts bounds the alternative-block search.
const defaultMaxAttempts = 10

// searchSpaces are walked in order when looking for an alternative parent
// block. The exact sequence is a policy choice; what matters is that it is
// deterministic, so the same conflict input always yields the same
// resolution.
var searchSpaces = []NetworkBlock{
	MustParseBlock("10.0.0.0/8"),
	MustParseBlock("172.16.0.0/12"),
	MustParseBlock("192.168.0.0/16"),
}

// Resolver finds non-overlapping replacements for blocks that collide with
// address space already present in the target account.
type Resolver struct {
	MaxAttempts int
}

// NewResolver returns a Resolver with the default attempt bound.
func NewResolver() *Resolver {
	return &Resolver{MaxAttempts: defaultMaxAttempts}
}

// ResolveParent returns candidate unchanged when it does not overlap any
// existing block; otherwise it walks the deterministic search sequence for
// a same-sized block that is free of overlaps, bounded by MaxAttempts.
func (r *Resolver) ResolveParent(candidate NetworkBlock, existing []NetworkBlock) (NetworkBlock, error) {
	if !candidate.OverlapsAny(existing) {
		return candidate, nil
	}

	var tried []string
	attempts := 0
	for _, space := range searchSpaces {
		if candidate.Prefix < space.Prefix {
			continue // candidate too large for this space
		}
		step := candidate.Size()
		for off := uint64(0); off+step <= space.Size(); off += step {
			alt := NetworkBlock{Base: space.Base + uint32(off), Prefix: candidate.Prefix}
			if alt == candidate {
				continue
			}
			attempts++
			if !alt.OverlapsAny(existing) {
				return alt, nil
			}
			tried = append(tried, alt.String())
			if attempts >= r.maxAttempts() {
				return NetworkBlock{}, fmt.Errorf("parent block %s conflicts; tried %s: %w",
					candidate, strings.Join(tried, ", "), ErrNoAvailableAddressSpace)
			}
		}
	}
	return NetworkBlock{}, fmt.Errorf("parent block %s conflicts; tried %s: %w",
		candidate, strings.Join(tried, ", "), ErrNoAvailableAddressSpace)
}

// ResolveSubnets reallocates only the subnets of plan that overlap existing
// blocks, leaving the rest of the plan untouched. A reallocated subnet is
// moved to the first free subnet-sized offset inside the parent that
// overlaps neither existing blocks nor other subnets in the plan.
func (r *Resolver) ResolveSubnets(plan SubnetPlan, existing []NetworkBlock) (SubnetPlan, error) {
	resolved := SubnetPlan{Parent: plan.Parent, Subnets: make([]Subnet, len(plan.Subnets))}
	copy(resolved.Subnets, plan.Subnets)

	for i, s := range resolved.Subnets {
		if !s.Block.OverlapsAny(existing) {
			continue
		}
		alt, err := r.relocate(resolved, i, existing)
		if err != nil {
			return SubnetPlan{}, err
		}
		resolved.Subnets[i].Block = alt
	}
	return resolved, nil
}

// relocate finds a replacement block for subnet i of plan.
func (r *Resolver) relocate(plan SubnetPlan, i int, existing []NetworkBlock) (NetworkBlock, error) {
	s := plan.Subnets[i]
	capacity := plan.Parent.Size() / s.Block.Size()

	attempts := 0
	for off := uint64(0); off < capacity; off++ {
		alt := blockAt(plan.Parent, int(off), s.Request.Prefix)
		if alt == s.Block {
			continue
		}
		attempts++
		if !alt.OverlapsAny(existing) && !overlapsPlanExcept(plan, alt, i) {
			return alt, nil
		}
		if attempts >= r.maxAttempts() {
			break
		}
	}
	return NetworkBlock{}, fmt.Errorf("subnet %s (%s %d) conflicts and no free offset found in %s: %w",
		s.Block, s.Request.Tier, s.Request.Index, plan.Parent, ErrNoAvailableAddressSpace)
}

func overlapsPlanExcept(plan SubnetPlan, b NetworkBlock, skip int) bool {
	for j, s := range plan.Subnets {
		if j == skip {
			continue
		}
		if b.Overlaps(s.Block) {
			return true
		}
	}
	return false
}

func (r *Resolver) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return r.MaxAttempts
}
