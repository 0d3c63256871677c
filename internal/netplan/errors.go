package netplan

import "errors"

var (
	// ErrCapacityExceeded indicates the requested subnets do not fit in the
	// parent block (or would collide with the other tier's band).
	ErrCapacityExceeded = errors.New("requested subnets exceed parent block capacity")

	// ErrInvalidPrefix indicates a subnet prefix length outside [parent, 32].
	ErrInvalidPrefix = errors.New("invalid subnet prefix length")

	// ErrNoAvailableAddressSpace indicates the conflict resolver exhausted
	// its attempt bound without finding a non-overlapping block.
	ErrNoAvailableAddressSpace = errors.New("no available address space")
)
