// Package artifact persists proposed KPI tables as downloadable CSV files.
// The dashboard never commits anything back to the repository; it writes the
// CSV under .bpmnboard/downloads/ and the user commits it manually.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/udexvinda/process-flow-dashboard/internal/kpi"
)

// Store manages proposed-KPI CSV output rooted at the downloads directory.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for result timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store writing into the given directory.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// SaveResult describes a written proposal file.
type SaveResult struct {
	Path    string
	Name    string
	Written time.Time
}

// SaveProposal writes a suggested KPI table using the conventional artifact
// name for the diagram: <stem>_kpis.csv. An existing file with that name is
// overwritten; proposals are cheap to regenerate.
func (s *Store) SaveProposal(diagramName string, table kpi.Table) (SaveResult, error) {
	stem := diagramName
	if idx := strings.LastIndex(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	if stem == "" {
		return SaveResult{}, fmt.Errorf("artifact: diagram name %q has no stem", diagramName)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("artifact: ensure downloads dir: %w", err)
	}
	name := stem + "_kpis.csv"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(table.EncodeCSV()), 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return SaveResult{Path: path, Name: name, Written: s.now()}, nil
}
