package netplan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanBandLayout(t *testing.T) {
	t.Parallel()

	parent := MustParseBlock("172.16.0.0/16")
	plan, err := Plan(parent, 1, 3, 24, []string{"us-east-1a", "us-east-1b", "us-east-1c"})
	require.NoError(t, err)

	got := map[string][]string{}
	for _, s := range plan.Subnets {
		got[string(s.Request.Tier)] = append(got[string(s.Request.Tier)], s.Block.String())
	}
	want := map[string][]string{
		"public":  {"172.16.1.0/24"},
		"private": {"172.16.11.0/24", "172.16.12.0/24", "172.16.13.0/24"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subnet layout mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "us-east-1a", plan.Subnets[0].Request.ZoneHint)
	assert.Equal(t, "us-east-1b", plan.Tier(TierPrivate)[1].Request.ZoneHint)
}

func TestPlanInvariants(t *testing.T) {
	t.Parallel()

	// Every valid combination must yield pairwise-disjoint blocks inside
	// the parent.
	parents := []string{"10.0.0.0/16", "172.16.0.0/16", "192.168.0.0/16", "10.42.0.0/18"}
	for _, p := range parents {
		parent := MustParseBlock(p)
		for publicCount := 0; publicCount <= 3; publicCount++ {
			for privateCount := 0; privateCount <= 6; privateCount++ {
				plan, err := Plan(parent, publicCount, privateCount, 24, nil)
				require.NoError(t, err, "parent=%s pub=%d priv=%d", p, publicCount, privateCount)
				require.NoError(t, plan.Validate())
				assert.Len(t, plan.Subnets, publicCount+privateCount)
			}
		}
	}
}

func TestPlanErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		parent       string
		publicCount  int
		privateCount int
		prefix       int
		wantErr      error
	}{
		{name: "prefix smaller than parent", parent: "10.0.0.0/24", prefix: 16, privateCount: 1, wantErr: ErrInvalidPrefix},
		{name: "prefix beyond 32", parent: "10.0.0.0/16", prefix: 33, privateCount: 1, wantErr: ErrInvalidPrefix},
		{name: "private band does not fit", parent: "10.0.0.0/24", prefix: 26, privateCount: 1, wantErr: ErrCapacityExceeded},
		{name: "too many private subnets", parent: "10.0.0.0/16", prefix: 24, privateCount: 250, wantErr: ErrCapacityExceeded},
		{name: "public band runs into private band", parent: "10.0.0.0/16", prefix: 24, publicCount: 11, privateCount: 1, wantErr: ErrCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Plan(MustParseBlock(tt.parent), tt.publicCount, tt.privateCount, tt.prefix, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestPlanPublicOnlyUsesFullCapacity(t *testing.T) {
	t.Parallel()

	// With no private subnets the public band may grow past the private
	// band offset.
	plan, err := Plan(MustParseBlock("10.0.0.0/16"), 20, 0, 24, nil)
	require.NoError(t, err)
	require.NoError(t, plan.Validate())
	assert.Len(t, plan.Subnets, 20)
}
