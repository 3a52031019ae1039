package grants

import (
	"context"
	"sync"
)

// MemorySource provides an in-memory implementation of Source.
// This is useful for testing, development, and simple single-instance
// deployments. Unlike the engine itself, a MemorySource may be shared
// and is safe for concurrent use.
type MemorySource struct {
	mu         sync.RWMutex
	privileges []PrivilegeID
	users      []UserID
	groups     []GroupID
	relations  []Relation
	grants     []Grant
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// SeedPrivileges appends privilege identifiers to the source.
func (s *MemorySource) SeedPrivileges(ids ...PrivilegeID) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privileges = append(s.privileges, ids...)
	return s
}

// SeedUsers appends user identifiers to the source.
func (s *MemorySource) SeedUsers(ids ...UserID) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, ids...)
	return s
}

// SeedGroups appends group identifiers to the source.
func (s *MemorySource) SeedGroups(ids ...GroupID) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, ids...)
	return s
}

// SeedRelations appends relations to the source.
func (s *MemorySource) SeedRelations(relations ...Relation) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations = append(s.relations, relations...)
	return s
}

// SeedGrants appends grant rows to the source.
func (s *MemorySource) SeedGrants(grants ...Grant) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = append(s.grants, grants...)
	return s
}

// Privileges returns a copy of the seeded privilege identifiers.
func (s *MemorySource) Privileges(ctx context.Context) ([]PrivilegeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PrivilegeID(nil), s.privileges...), nil
}

// Users returns a copy of the seeded user identifiers.
func (s *MemorySource) Users(ctx context.Context) ([]UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]UserID(nil), s.users...), nil
}

// Groups returns a copy of the seeded group identifiers.
func (s *MemorySource) Groups(ctx context.Context) ([]GroupID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]GroupID(nil), s.groups...), nil
}

// Relations returns a copy of the seeded relations.
func (s *MemorySource) Relations(ctx context.Context) ([]Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Relation(nil), s.relations...), nil
}

// Grants returns a copy of the seeded grant rows.
func (s *MemorySource) Grants(ctx context.Context) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Grant(nil), s.grants...), nil
}

// Compile-time interface check
var _ Source = (*MemorySource)(nil)
