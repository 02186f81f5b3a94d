package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

// MemoryStore is an in-memory implementation of the ScanStore interface,
// useful for tests and ephemeral deployments.
type MemoryStore struct {
	records map[string]*core.ScanRecord
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory scan store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*core.ScanRecord),
		logger:  logger,
	}
}

// Add persists a new scan record.
func (s *MemoryStore) Add(_ context.Context, rec *core.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return &core.StoreError{Op: "add", Err: fmt.Errorf("record %q already exists", rec.ID)}
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// GetAll returns every stored scan record.
func (s *MemoryStore) GetAll(_ context.Context) ([]*core.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.ScanRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

// Update applies an update-merge patch to an existing record.
func (s *MemoryStore) Update(_ context.Context, id string, patch core.ScanPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return &core.StoreError{Op: "update", Err: fmt.Errorf("record %q not found", id)}
	}
	applyPatch(rec, patch)
	return nil
}

// Delete removes a record. Deleting a missing record is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}
