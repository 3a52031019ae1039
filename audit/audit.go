// Package audit records authorization changes as structured events.
//
// A Recorder subscribes to a grants engine and turns every change event
// into a persisted Record. Stores are pluggable; MemoryStore ships for
// tests and small deployments, persistent backends implement Store.
package audit

import (
	"context"
	"sync"
	"time"
)

// Record is one persisted audit entry.
type Record struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g. "grant.added", "session.committed"
	Privilege string    `json:"privilege,omitempty"`
	User      string    `json:"user,omitempty"`
	Group     string    `json:"group,omitempty"`
	Relation  string    `json:"relation,omitempty"` // canonical relation string
	Grant     string    `json:"grant,omitempty"`    // canonical grant string
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for persisting and querying audit records.
type Store interface {
	// Save persists one record.
	Save(ctx context.Context, rec *Record) error

	// Query returns records matching the filter, oldest first.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Types     []string
	Privilege string
	User      string
	Group     string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

func (f Filter) matches(rec Record) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if rec.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Privilege != "" && rec.Privilege != f.Privilege {
		return false
	}
	if f.User != "" && rec.User != f.User {
		return false
	}
	if f.Group != "" && rec.Group != f.Group {
		return false
	}
	if !f.StartTime.IsZero() && rec.CreatedAt.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && rec.CreatedAt.After(f.EndTime) {
		return false
	}
	return true
}

// MemoryStore keeps records in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, rec := range s.records {
		if filter.matches(rec) {
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
