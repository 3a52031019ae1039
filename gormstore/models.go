package gormstore

import (
	"fmt"
	"time"

	"github.com/vespertan/privileges/grants"
)

// gormPrivilege stores one privilege identifier.
type gormPrivilege struct {
	ID        string    `gorm:"primaryKey;size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (gormPrivilege) TableName() string { return "privilege_privileges" }

// gormUser stores one user identifier.
type gormUser struct {
	ID        string    `gorm:"primaryKey;size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (gormUser) TableName() string { return "privilege_users" }

// gormGroup stores one group identifier.
type gormGroup struct {
	ID        string    `gorm:"primaryKey;size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (gormGroup) TableName() string { return "privilege_groups" }

// gormRelation stores one membership or nesting edge. The ID is the
// canonical relation string so the same edge cannot be inserted twice.
type gormRelation struct {
	ID         string    `gorm:"primaryKey;size:512"`
	Kind       string    `gorm:"size:16;index:idx_relation_kind"`
	GroupID    string    `gorm:"size:255;index:idx_relation_group"`
	UserID     string    `gorm:"size:255;index:idx_relation_user"`
	SubGroupID string    `gorm:"size:255;index:idx_relation_subgroup"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (gormRelation) TableName() string { return "privilege_relations" }

// gormGrant stores one grant row. The ID is the pair key (privilege plus
// principal, without the boolean) so flipping the boolean overwrites the
// row in place.
type gormGrant struct {
	ID            string    `gorm:"primaryKey;size:512"`
	Privilege     string    `gorm:"size:255;index:idx_grant_privilege"`
	PrincipalKind string    `gorm:"size:16"`
	UserID        string    `gorm:"size:255;index:idx_grant_user"`
	GroupID       string    `gorm:"size:255;index:idx_grant_group"`
	Allow         bool      `gorm:""`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (gormGrant) TableName() string { return "privilege_grants" }

func fromRelation(r grants.Relation) *gormRelation {
	return &gormRelation{
		ID:         r.String(),
		Kind:       r.Kind.String(),
		GroupID:    string(r.Group),
		UserID:     string(r.User),
		SubGroupID: string(r.SubGroup),
	}
}

func toRelation(gr *gormRelation) (grants.Relation, error) {
	switch gr.Kind {
	case grants.RelationMembership.String():
		return grants.NewMembership(grants.GroupID(gr.GroupID), grants.UserID(gr.UserID)), nil
	case grants.RelationNesting.String():
		return grants.NewNesting(grants.GroupID(gr.GroupID), grants.GroupID(gr.SubGroupID)), nil
	default:
		return grants.Relation{}, fmt.Errorf("gormstore: relation %q has unknown kind %q", gr.ID, gr.Kind)
	}
}

func fromGrant(g grants.Grant) *gormGrant {
	return &gormGrant{
		ID:            grantID(g),
		Privilege:     string(g.Privilege),
		PrincipalKind: g.Principal.Kind.String(),
		UserID:        string(g.Principal.User),
		GroupID:       string(g.Principal.Group),
		Allow:         g.Allow,
	}
}

func toGrant(gg *gormGrant) (grants.Grant, error) {
	switch gg.PrincipalKind {
	case grants.PrincipalUser.String():
		return grants.NewGrant(
			grants.PrivilegeID(gg.Privilege),
			grants.UserPrincipal(grants.UserID(gg.UserID)),
			gg.Allow,
		), nil
	case grants.PrincipalGroup.String():
		return grants.NewGrant(
			grants.PrivilegeID(gg.Privilege),
			grants.GroupPrincipal(grants.GroupID(gg.GroupID)),
			gg.Allow,
		), nil
	default:
		return grants.Grant{}, fmt.Errorf("gormstore: grant %q has unknown principal kind %q", gg.ID, gg.PrincipalKind)
	}
}

// grantID builds the pair key, ignoring the boolean.
func grantID(g grants.Grant) string {
	return string(g.Privilege) + "@" + g.Principal.String()
}
