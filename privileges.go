// Package privileges wires the grants engine to its storage backends.
//
// The subpackages do the real work: grants holds the engine, gormstore the
// relational persistence, projection the Redis read model, audit the change
// trail and catalog the privilege name registry. This package re-exports
// the everyday types and offers default constructors for common setups.
package privileges

import (
	"context"

	"gorm.io/gorm"

	"github.com/vespertan/privileges/grants"
	"github.com/vespertan/privileges/gormstore"
)

// Default types for convenience
type (
	Engine      = grants.Engine
	PrivilegeID = grants.PrivilegeID
	UserID      = grants.UserID
	GroupID     = grants.GroupID
	Relation    = grants.Relation
	Grant       = grants.Grant
	Principal   = grants.Principal
	Decision    = grants.Decision
	Event       = grants.Event
	Listener    = grants.Listener
	Source      = grants.Source
)

// NewMemoryEngine creates an engine over an empty in-memory state.
func NewMemoryEngine(ctx context.Context, opts ...grants.Option) (*grants.Engine, error) {
	return grants.NewEngine(ctx, grants.NewMemorySource(), opts...)
}

// NewGormEngine creates an engine loaded from the database and keeps the
// tables in step with every committed change.
func NewGormEngine(ctx context.Context, db *gorm.DB, opts ...grants.Option) (*grants.Engine, error) {
	store := gormstore.NewStore(db)
	if err := store.AutoMigrate(); err != nil {
		return nil, err
	}
	engine, err := grants.NewEngine(ctx, store, opts...)
	if err != nil {
		return nil, err
	}
	engine.Subscribe(store.Listener())
	return engine, nil
}
