package netplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cidr    string
		want    string
		wantErr bool
	}{
		{name: "aligned /16", cidr: "172.16.0.0/16", want: "172.16.0.0/16"},
		{name: "unaligned base is masked", cidr: "10.0.5.7/16", want: "10.0.0.0/16"},
		{name: "single host", cidr: "192.168.1.1/32", want: "192.168.1.1/32"},
		{name: "whole space", cidr: "0.0.0.0/0", want: "0.0.0.0/0"},
		{name: "garbage", cidr: "not-a-cidr", wantErr: true},
		{name: "ipv6 rejected", cidr: "fd00::/64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := ParseBlock(tt.cidr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "/16 contains /24", a: "10.0.0.0/16", b: "10.0.100.0/24", want: true},
		{name: "adjacent /24s", a: "10.0.0.0/24", b: "10.0.1.0/24", want: false},
		{name: "identical", a: "172.16.0.0/16", b: "172.16.0.0/16", want: true},
		{name: "disjoint spaces", a: "10.0.0.0/8", b: "192.168.0.0/16", want: false},
		{name: "partial straddle", a: "10.0.0.0/23", b: "10.0.1.0/24", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := MustParseBlock(tt.a)
			b := MustParseBlock(tt.b)
			assert.Equal(t, tt.want, a.Overlaps(b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, b.Overlaps(a))
		})
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	parent := MustParseBlock("172.16.0.0/16")
	assert.True(t, parent.Contains(MustParseBlock("172.16.11.0/24")))
	assert.True(t, parent.Contains(parent))
	assert.False(t, parent.Contains(MustParseBlock("172.17.0.0/24")))
	assert.False(t, parent.Contains(MustParseBlock("172.16.0.0/15")))
}

func TestIsDuplicateOf(t *testing.T) {
	t.Parallel()

	existing := []NetworkBlock{
		MustParseBlock("10.0.0.0/16"),
		MustParseBlock("172.16.0.0/16"),
	}
	assert.True(t, MustParseBlock("172.16.0.0/16").IsDuplicateOf(existing))
	// Overlapping but not identical is not a duplicate.
	assert.False(t, MustParseBlock("172.16.0.0/24").IsDuplicateOf(existing))
	assert.False(t, MustParseBlock("192.168.0.0/16").IsDuplicateOf(existing))
}
