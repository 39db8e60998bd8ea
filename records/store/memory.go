// Package store provides the in-memory Store implementation, used by tests
// and development servers.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/campusops/records-engine/records"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	byID map[records.RecordID]records.Record
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[records.RecordID]records.Record)}
}

func (m *Memory) Create(_ context.Context, rec records.Record) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[rec.ID]; exists {
		return records.Record{}, &records.ValidationError{Field: "id", Reason: "already exists"}
	}
	m.byID[rec.ID] = rec
	return rec, nil
}

func (m *Memory) Get(_ context.Context, id records.RecordID) (records.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return records.Record{}, records.ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Update(_ context.Context, rec records.Record) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[rec.ID]; !ok {
		return records.Record{}, records.ErrNotFound
	}
	m.byID[rec.ID] = rec
	return rec, nil
}

func (m *Memory) Query(_ context.Context, f records.Filter) ([]records.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []records.Record
	for _, rec := range m.byID {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].EventDate(), out[j].EventDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
