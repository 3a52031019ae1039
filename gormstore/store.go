// Package gormstore persists authorization data behind GORM.
//
// Store serves double duty: it implements grants.Source, so an engine can
// load from the database, and it exposes a Listener that keeps the tables
// in step with a live engine's change events. The typical wiring is:
//
//	db, _ := gormstore.Open("sqlite", "privileges.db", nil)
//	store := gormstore.NewStore(db)
//	_ = store.AutoMigrate()
//	engine, _ := grants.NewEngine(ctx, store)
//	engine.Subscribe(store.Listener())
package gormstore

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vespertan/privileges/grants"
)

// Store reads and writes authorization rows through a gorm.DB.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger attaches a logger; listener write failures are logged.
func WithLogger(log *zap.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a store over an open database handle.
func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoMigrate creates or updates the five authorization tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&gormPrivilege{},
		&gormUser{},
		&gormGroup{},
		&gormRelation{},
		&gormGrant{},
	)
}

// Privileges returns every stored privilege identifier.
func (s *Store) Privileges(ctx context.Context) ([]grants.PrivilegeID, error) {
	var rows []gormPrivilege
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grants.PrivilegeID, 0, len(rows))
	for _, row := range rows {
		out = append(out, grants.PrivilegeID(row.ID))
	}
	return out, nil
}

// Users returns every stored user identifier.
func (s *Store) Users(ctx context.Context) ([]grants.UserID, error) {
	var rows []gormUser
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grants.UserID, 0, len(rows))
	for _, row := range rows {
		out = append(out, grants.UserID(row.ID))
	}
	return out, nil
}

// Groups returns every stored group identifier.
func (s *Store) Groups(ctx context.Context) ([]grants.GroupID, error) {
	var rows []gormGroup
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grants.GroupID, 0, len(rows))
	for _, row := range rows {
		out = append(out, grants.GroupID(row.ID))
	}
	return out, nil
}

// Relations returns every stored relation.
func (s *Store) Relations(ctx context.Context) ([]grants.Relation, error) {
	var rows []gormRelation
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grants.Relation, 0, len(rows))
	for i := range rows {
		r, err := toRelation(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Grants returns every stored grant row.
func (s *Store) Grants(ctx context.Context) ([]grants.Grant, error) {
	var rows []gormGrant
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]grants.Grant, 0, len(rows))
	for i := range rows {
		g, err := toGrant(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

var _ grants.Source = (*Store)(nil)

// Import replaces the table contents with a full snapshot from the given
// source, in one transaction. Useful for seeding a fresh database from a
// live engine.
func (s *Store) Import(ctx context.Context, src grants.Source) error {
	privileges, err := src.Privileges(ctx)
	if err != nil {
		return err
	}
	users, err := src.Users(ctx)
	if err != nil {
		return err
	}
	groups, err := src.Groups(ctx)
	if err != nil {
		return err
	}
	relations, err := src.Relations(ctx)
	if err != nil {
		return err
	}
	grantRows, err := src.Grants(ctx)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&gormGrant{}, &gormRelation{}, &gormGroup{}, &gormUser{}, &gormPrivilege{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		for _, id := range privileges {
			if err := tx.Create(&gormPrivilege{ID: string(id)}).Error; err != nil {
				return err
			}
		}
		for _, id := range users {
			if err := tx.Create(&gormUser{ID: string(id)}).Error; err != nil {
				return err
			}
		}
		for _, id := range groups {
			if err := tx.Create(&gormGroup{ID: string(id)}).Error; err != nil {
				return err
			}
		}
		for _, r := range relations {
			if err := tx.Create(fromRelation(r)).Error; err != nil {
				return err
			}
		}
		for _, g := range grantRows {
			if err := tx.Create(fromGrant(g)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Listener returns the listener that applies engine change events to the
// database. Writes use upserts so replaying an event stream is harmless.
// Session lifecycle events are ignored; by the time they fire, the
// per-change events have already been applied.
func (s *Store) Listener() grants.Listener {
	return func(ev grants.Event) {
		ctx := context.Background()
		var err error
		switch ev.Kind {
		case grants.EventPrivilegeAdded:
			err = s.upsert(ctx, &gormPrivilege{ID: string(ev.Privilege)})
		case grants.EventPrivilegeRemoved:
			err = s.db.WithContext(ctx).Delete(&gormPrivilege{}, "id = ?", string(ev.Privilege)).Error
		case grants.EventUserAdded:
			err = s.upsert(ctx, &gormUser{ID: string(ev.User)})
		case grants.EventUserRemoved:
			err = s.db.WithContext(ctx).Delete(&gormUser{}, "id = ?", string(ev.User)).Error
		case grants.EventGroupAdded:
			err = s.upsert(ctx, &gormGroup{ID: string(ev.Group)})
		case grants.EventGroupRemoved:
			err = s.db.WithContext(ctx).Delete(&gormGroup{}, "id = ?", string(ev.Group)).Error
		case grants.EventRelationAdded:
			err = s.upsert(ctx, fromRelation(ev.Relation))
		case grants.EventRelationRemoved:
			err = s.db.WithContext(ctx).Delete(&gormRelation{}, "id = ?", ev.Relation.String()).Error
		case grants.EventGrantAdded:
			err = s.upsert(ctx, fromGrant(ev.Grant))
		case grants.EventGrantUpdated:
			row := fromGrant(ev.Grant)
			err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"allow"}),
			}).Create(row).Error
		case grants.EventGrantRemoved:
			err = s.db.WithContext(ctx).Delete(&gormGrant{}, "id = ?", grantID(ev.Grant)).Error
		}
		if err != nil && s.log != nil {
			s.log.Error("gormstore: apply event",
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (s *Store) upsert(ctx context.Context, row any) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(row).Error
}
