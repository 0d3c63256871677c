package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Record is one persisted ledger entry. It is written the instant a create
// call succeeds and removed only after a delete is confirmed.
type Record struct {
	LogicalName string            `yaml:"logicalName"`
	Kind        Kind              `yaml:"kind"`
	Handle      string            `yaml:"handle"`
	CreatedAt   time.Time         `yaml:"createdAt"`
	Attrs       map[string]string `yaml:"attrs,omitempty"`
}

// fileFormat is the on-disk shape of the ledger.
type fileFormat struct {
	Records []Record `yaml:"records"`
}

// Store is a durable key-value ledger keyed by logical resource name.
// All mutations are serialized through its mutex and flushed to disk
// before returning.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
}

// Open loads the ledger at path, creating an empty one if the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]Record)}

	data, err := os.ReadFile(path) // #nosec G304
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	for _, rec := range f.Records {
		s.records[rec.LogicalName] = rec
	}
	return s, nil
}

// NewMemory returns a ledger that is never written to disk. For tests and
// dry runs.
func NewMemory() *Store {
	return &Store{records: make(map[string]Record)}
}

// Record appends or overwrites the entry for rec.LogicalName and flushes
// the ledger before returning.
func (s *Store) Record(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records[rec.LogicalName] = rec
	return s.flushLocked()
}

// Lookup returns the record for the given logical name, if present.
func (s *Store) Lookup(logicalName string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[logicalName]
	return rec, ok
}

// Remove deletes the entry for the given logical name and flushes the
// ledger. Removing an absent entry is a no-op.
func (s *Store) Remove(logicalName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[logicalName]; !ok {
		return nil
	}
	delete(s.records, logicalName)
	return s.flushLocked()
}

// All returns every record sorted by logical name.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// ByKind returns the records of the given kind sorted by logical name.
func (s *Store) ByKind(kind Kind) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.sortedLocked() {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Empty reports whether the ledger has no records.
func (s *Store) Empty() bool {
	return s.Len() == 0
}

// Path returns the backing file path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

func (s *Store) sortedLocked() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LogicalName < out[j].LogicalName
	})
	return out
}

// flushLocked writes the full ledger through a temp file and rename so a
// crash mid-write never corrupts the previous state. The file is synced
// before the rename; callers must not proceed to dependent work until this
// returns.
func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(fileFormat{Records: s.sortedLocked()})
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
