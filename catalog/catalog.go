// Package catalog maps symbolic privilege names to privilege identifiers.
//
// Applications declare their privileges once, typically at startup, and get
// back the identifiers the grants engine works with. Dotted names build a
// readable namespace:
//
//	var cat = catalog.New()
//	var (
//	    UsersAdd    = cat.MustRegister("users", "add")
//	    UsersRemove = cat.MustRegister("users", "remove")
//	)
//
// The full set can then seed a source so the engine starts with every
// declared privilege present.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vespertan/privileges/grants"
)

// Catalog is a registry of declared privilege names. Safe for concurrent
// registration and lookup.
type Catalog struct {
	mu        sync.RWMutex
	separator string
	ids       map[string]grants.PrivilegeID
	ordered   []grants.PrivilegeID
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSeparator sets the string joining name segments. The default is ".".
func WithSeparator(sep string) Option {
	return func(c *Catalog) {
		c.separator = sep
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		separator: ".",
		ids:       make(map[string]grants.PrivilegeID),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register declares a privilege from one or more name segments joined by
// the catalog separator. Empty segments fail with ErrInvalidIdentifier,
// re-declaring a name fails with ErrDuplicateEntity.
func (c *Catalog) Register(segments ...string) (grants.PrivilegeID, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("catalog: empty privilege name: %w", grants.ErrInvalidIdentifier)
	}
	for _, s := range segments {
		if s == "" {
			return "", fmt.Errorf("catalog: empty name segment: %w", grants.ErrInvalidIdentifier)
		}
	}
	name := strings.Join(segments, c.separator)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[name]; ok {
		return "", fmt.Errorf("catalog: privilege %q: %w", name, grants.ErrDuplicateEntity)
	}
	id := grants.PrivilegeID(name)
	c.ids[name] = id
	c.ordered = append(c.ordered, id)
	return id, nil
}

// MustRegister is Register that panics on error. Intended for package-level
// privilege declarations.
func (c *Catalog) MustRegister(segments ...string) grants.PrivilegeID {
	id, err := c.Register(segments...)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup resolves a full privilege name.
func (c *Catalog) Lookup(name string) (grants.PrivilegeID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

// All returns every declared privilege in registration order.
func (c *Catalog) All() []grants.PrivilegeID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]grants.PrivilegeID, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Seed adds every declared privilege to the given memory source.
func (c *Catalog) Seed(src *grants.MemorySource) *grants.MemorySource {
	return src.SeedPrivileges(c.All()...)
}
