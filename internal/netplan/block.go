package netplan

import (
	"encoding/binary"
	"fmt"
	"net"
)

// NetworkBlock is an IPv4 CIDR represented as a base address plus prefix
// length. The base is always aligned to the boundary implied by the prefix.
type NetworkBlock struct {
	Base   uint32
	Prefix int
}

// ParseBlock parses a CIDR string into a NetworkBlock.
// Only IPv4 is supported.
func ParseBlock(cidr string) (NetworkBlock, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return NetworkBlock{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	ip4 := ipNet.IP.To4()
	if ip4 == nil {
		return NetworkBlock{}, fmt.Errorf("only IPv4 is supported, got %q", cidr)
	}
	prefix, _ := ipNet.Mask.Size()
	return NetworkBlock{
		Base:   binary.BigEndian.Uint32(ip4),
		Prefix: prefix,
	}, nil
}

// MustParseBlock is ParseBlock that panics on error. For fixed literals only.
func MustParseBlock(cidr string) NetworkBlock {
	b, err := ParseBlock(cidr)
	if err != nil {
		panic(err)
	}
	return b
}

// Size returns the number of addresses covered by the block.
func (b NetworkBlock) Size() uint64 {
	return 1 << (32 - b.Prefix)
}

// String formats the block in dotted-quad CIDR notation.
func (b NetworkBlock) String() string {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, b.Base)
	return fmt.Sprintf("%s/%d", ip.String(), b.Prefix)
}

// Contains reports whether other lies entirely within b.
func (b NetworkBlock) Contains(other NetworkBlock) bool {
	return uint64(other.Base) >= uint64(b.Base) &&
		uint64(other.Base)+other.Size() <= uint64(b.Base)+b.Size()
}

// Overlaps reports whether the integer address ranges [base, base+size) of
// the two blocks intersect. Mismatched prefix lengths are handled naturally:
// a /16 overlaps every /24 inside it.
func (b NetworkBlock) Overlaps(other NetworkBlock) bool {
	return uint64(b.Base) < uint64(other.Base)+other.Size() &&
		uint64(other.Base) < uint64(b.Base)+b.Size()
}

// OverlapsAny reports whether b overlaps any block in existing.
func (b NetworkBlock) OverlapsAny(existing []NetworkBlock) bool {
	for _, e := range existing {
		if b.Overlaps(e) {
			return true
		}
	}
	return false
}

// IsDuplicateOf reports an exact base+prefix match. Used as a cheap
// pre-check on the parent block before any subnet planning starts.
func (b NetworkBlock) IsDuplicateOf(existing []NetworkBlock) bool {
	for _, e := range existing {
		if b == e {
			return true
		}
	}
	return false
}
