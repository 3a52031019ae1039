// Package grants implements a hierarchical privilege grant engine.
//
// The engine models users, groups (possibly nested), and privileges, and
// answers "is privilege P granted to principal X?" by walking the group
// hierarchy with deny-overrides precedence. This package provides:
//   - Core types for identifiers, relations and grants
//   - Source interface for loading authorization data from any backend
//   - Hierarchy resolver and grant evaluator
//   - Staged mutation engine with a commit/rollback session protocol
//   - Change-event stream for maintaining external projections
//
// Grants recorded on a group flow downward to its subgroups and their
// members; an explicit deny anywhere on the ancestor chain beats any allow.
package grants

// PrivilegeID identifies a privilege. The zero value is reserved to mean
// "absent" and is rejected as a real identifier.
type PrivilegeID string

// UserID identifies a user. The zero value is reserved.
type UserID string

// GroupID identifies a group. The zero value is reserved.
type GroupID string

// RelationKind discriminates the two relation variants.
type RelationKind int8

const (
	// RelationMembership places a user directly in a group.
	RelationMembership RelationKind = iota + 1
	// RelationNesting places a subgroup directly under a group.
	RelationNesting
)

// String returns the canonical kind name.
func (k RelationKind) String() string {
	switch k {
	case RelationMembership:
		return "membership"
	case RelationNesting:
		return "nesting"
	default:
		return "unknown"
	}
}

// Relation links either a user or a subgroup to a group. Exactly one of
// User / SubGroup is set, according to Kind. Relations are comparable and
// used as map keys by the engine.
type Relation struct {
	Kind     RelationKind
	Group    GroupID
	User     UserID  // set only for RelationMembership
	SubGroup GroupID // set only for RelationNesting
}

// NewMembership creates a relation placing user directly in group.
func NewMembership(group GroupID, user UserID) Relation {
	return Relation{Kind: RelationMembership, Group: group, User: user}
}

// NewNesting creates a relation placing subGroup directly under group.
func NewNesting(group GroupID, subGroup GroupID) Relation {
	return Relation{Kind: RelationNesting, Group: group, SubGroup: subGroup}
}

// String returns the canonical representation, e.g. "user:alice@group:staff"
// or "group:admins@group:staff".
func (r Relation) String() string {
	switch r.Kind {
	case RelationMembership:
		return "user:" + string(r.User) + "@group:" + string(r.Group)
	case RelationNesting:
		return "group:" + string(r.SubGroup) + "@group:" + string(r.Group)
	default:
		return "invalid"
	}
}

// PrincipalKind discriminates the subject of a grant.
type PrincipalKind int8

const (
	// PrincipalUser marks a grant recorded directly on a user.
	PrincipalUser PrincipalKind = iota + 1
	// PrincipalGroup marks a grant recorded on a group.
	PrincipalGroup
)

// String returns the canonical kind name.
func (k PrincipalKind) String() string {
	switch k {
	case PrincipalUser:
		return "user"
	case PrincipalGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Principal is the subject of a grant: a user or a group. Exactly one of
// User / Group is set, according to Kind. Principals are comparable.
type Principal struct {
	Kind  PrincipalKind
	User  UserID  // set only for PrincipalUser
	Group GroupID // set only for PrincipalGroup
}

// UserPrincipal creates a user principal.
func UserPrincipal(id UserID) Principal {
	return Principal{Kind: PrincipalUser, User: id}
}

// GroupPrincipal creates a group principal.
func GroupPrincipal(id GroupID) Principal {
	return Principal{Kind: PrincipalGroup, Group: id}
}

// String returns "user:id" or "group:id".
func (p Principal) String() string {
	switch p.Kind {
	case PrincipalUser:
		return "user:" + string(p.User)
	case PrincipalGroup:
		return "group:" + string(p.Group)
	default:
		return "invalid"
	}
}

// Grant records a boolean directly against one (privilege, principal) pair.
// At most one committed grant exists per pair; installing the opposite
// boolean replaces the prior one.
type Grant struct {
	Privilege PrivilegeID
	Principal Principal
	Allow     bool
}

// NewGrant creates a grant row.
func NewGrant(privilege PrivilegeID, principal Principal, allow bool) Grant {
	return Grant{Privilege: privilege, Principal: principal, Allow: allow}
}

// String returns e.g. "allow:write@user:alice".
func (g Grant) String() string {
	verb := "deny"
	if g.Allow {
		verb = "allow"
	}
	return verb + ":" + string(g.Privilege) + "@" + g.Principal.String()
}

// inverted returns the same pair with the opposite boolean.
func (g Grant) inverted() Grant {
	g.Allow = !g.Allow
	return g
}

// grantPair identifies a (privilege, principal) pair regardless of boolean.
type grantPair struct {
	Privilege PrivilegeID
	Principal Principal
}

func (g Grant) pair() grantPair {
	return grantPair{Privilege: g.Privilege, Principal: g.Principal}
}

// Decision is the three-valued result of a grant evaluation before
// default substitution.
type Decision int8

const (
	// Unknown means no explicit grant applies anywhere on the chain.
	Unknown Decision = iota
	// Allow means an applicable explicit allow was found and no deny beats it.
	Allow
	// Deny means an applicable explicit deny was found.
	Deny
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Bool collapses the decision to a boolean, substituting def for Unknown.
func (d Decision) Bool(def bool) bool {
	switch d {
	case Allow:
		return true
	case Deny:
		return false
	default:
		return def
	}
}

// decisionOf converts an explicit grant boolean to a Decision.
func decisionOf(allow bool) Decision {
	if allow {
		return Allow
	}
	return Deny
}

// ChangeKind tags the pending state of a tracked row while a session is
// open, and the kind of a reported pending change.
type ChangeKind int8

const (
	// ChangeUnmodified marks a committed row with no pending change.
	ChangeUnmodified ChangeKind = iota
	// ChangeAdded marks a row staged for insertion.
	ChangeAdded
	// ChangeRemoved marks a row staged for deletion.
	ChangeRemoved
	// ChangeUpdated reports a grant pair whose boolean flips on commit.
	// It never appears as a stored state tag: the engine stages an update
	// as a Removed old row plus an Added new row and collapses the pair
	// when reporting.
	ChangeUpdated
)

// String returns the change kind name.
func (c ChangeKind) String() string {
	switch c {
	case ChangeUnmodified:
		return "unmodified"
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}
