package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "ledger.yaml"))
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestRecordLookupRemove(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "ledger.yaml"))
	require.NoError(t, err)

	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-0abc"}))

	rec, ok := s.Lookup("vpc")
	require.True(t, ok)
	assert.Equal(t, "vpc-0abc", rec.Handle)
	assert.Equal(t, KindVPC, rec.Kind)
	assert.False(t, rec.CreatedAt.IsZero())

	_, ok = s.Lookup("missing")
	assert.False(t, ok)

	require.NoError(t, s.Remove("vpc"))
	_, ok = s.Lookup("vpc")
	assert.False(t, ok)

	// Removing an absent entry is a no-op.
	require.NoError(t, s.Remove("vpc"))
}

func TestSurvivesRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.yaml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-0abc"}))
	require.NoError(t, s.Record(Record{
		LogicalName: "subnet-public-0",
		Kind:        KindSubnet,
		Handle:      "subnet-1",
		Attrs:       map[string]string{"cidr": "10.0.1.0/24", "tier": "public"},
	}))

	// A fresh process sees everything that was recorded.
	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	rec, ok := reopened.Lookup("subnet-public-0")
	require.True(t, ok)
	assert.Equal(t, "10.0.1.0/24", rec.Attrs["cidr"])
}

func TestByKindSorted(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	require.NoError(t, s.Record(Record{LogicalName: "subnet-b", Kind: KindSubnet, Handle: "subnet-2"}))
	require.NoError(t, s.Record(Record{LogicalName: "subnet-a", Kind: KindSubnet, Handle: "subnet-1"}))
	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-1"}))

	subnets := s.ByKind(KindSubnet)
	require.Len(t, subnets, 2)
	assert.Equal(t, "subnet-a", subnets[0].LogicalName)
	assert.Equal(t, "subnet-b", subnets[1].LogicalName)

	assert.Len(t, s.All(), 3)
}

func TestRecordOverwrite(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-old"}))
	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-new"}))

	rec, ok := s.Lookup("vpc")
	require.True(t, ok)
	assert.Equal(t, "vpc-new", rec.Handle)
	assert.Equal(t, 1, s.Len())
}

func TestFlushReplacesAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(Record{LogicalName: "vpc", Kind: KindVPC, Handle: "vpc-1"}))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.yaml", entries[0].Name())
}
