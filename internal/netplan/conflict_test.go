package netplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveParentNoConflict(t *testing.T) {
	t.Parallel()

	candidate := MustParseBlock("172.16.0.0/16")
	got, err := NewResolver().ResolveParent(candidate, nil)
	require.NoError(t, err)
	assert.Equal(t, candidate, got)
}

func TestResolveParentConflict(t *testing.T) {
	t.Parallel()

	candidate := MustParseBlock("172.16.0.0/16")
	existing := []NetworkBlock{candidate}

	got, err := NewResolver().ResolveParent(candidate, existing)
	require.NoError(t, err)
	assert.NotEqual(t, candidate, got)
	assert.False(t, got.OverlapsAny(existing))
	// The search is deterministic: 10.0.0.0/8 is walked first.
	assert.Equal(t, "10.0.0.0/16", got.String())
}

func TestResolveParentDeterministic(t *testing.T) {
	t.Parallel()

	candidate := MustParseBlock("10.0.0.0/16")
	existing := []NetworkBlock{
		MustParseBlock("10.0.0.0/16"),
		MustParseBlock("10.1.0.0/16"),
	}

	first, err := NewResolver().ResolveParent(candidate, existing)
	require.NoError(t, err)
	second, err := NewResolver().ResolveParent(candidate, existing)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "10.2.0.0/16", first.String())
}

func TestResolveParentExhausted(t *testing.T) {
	t.Parallel()

	// Cover the whole search space so every attempt collides.
	existing := []NetworkBlock{
		MustParseBlock("10.0.0.0/8"),
		MustParseBlock("172.16.0.0/12"),
		MustParseBlock("192.168.0.0/16"),
	}

	r := &Resolver{MaxAttempts: 5}
	_, err := r.ResolveParent(MustParseBlock("10.0.0.0/16"), existing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAvailableAddressSpace))
	// The error names tried candidates so an operator can pick manually.
	assert.Contains(t, err.Error(), "10.1.0.0/16")
}

func TestResolveSubnetsRelocatesOnlyConflicting(t *testing.T) {
	t.Parallel()

	parent := MustParseBlock("172.16.0.0/16")
	plan, err := Plan(parent, 1, 3, 24, nil)
	require.NoError(t, err)

	// Only the first private subnet collides with a pre-existing block.
	existing := []NetworkBlock{MustParseBlock("172.16.11.0/24")}

	resolved, err := NewResolver().ResolveSubnets(plan, existing)
	require.NoError(t, err)
	require.NoError(t, resolved.Validate())

	// Untouched subnets keep their blocks.
	assert.Equal(t, "172.16.1.0/24", resolved.Subnets[0].Block.String())
	assert.Equal(t, "172.16.12.0/24", resolved.Subnets[2].Block.String())
	assert.Equal(t, "172.16.13.0/24", resolved.Subnets[3].Block.String())

	// The conflicting one moved somewhere free.
	moved := resolved.Subnets[1].Block
	assert.NotEqual(t, "172.16.11.0/24", moved.String())
	assert.False(t, moved.OverlapsAny(existing))

	// The original plan is not mutated.
	assert.Equal(t, "172.16.11.0/24", plan.Subnets[1].Block.String())
}

func TestResolveSubnetsExhausted(t *testing.T) {
	t.Parallel()

	parent := MustParseBlock("172.16.0.0/16")
	plan, err := Plan(parent, 1, 1, 24, nil)
	require.NoError(t, err)

	// Everything inside the parent is taken.
	existing := []NetworkBlock{parent}

	_, err = NewResolver().ResolveSubnets(plan, existing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAvailableAddressSpace))
}
