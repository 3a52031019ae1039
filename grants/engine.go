package grants

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Engine is an editable, session-capable view over the authorization graph.
//
// State is loaded once from a Source at construction time; afterwards the
// engine owns it. All reads (hierarchy queries, evaluation) reflect the
// current effective view: committed state when no session is open, the
// post-staging view while one is.
//
// The engine is single-writer and performs no internal locking: exactly one
// logical owner drives mutations and the session lifecycle at a time.
// Callers needing concurrent access must serialize externally.
type Engine struct {
	defaultGrant bool
	log          *zap.Logger

	session    bool
	privileges map[PrivilegeID]ChangeKind
	users      map[UserID]ChangeKind
	groups     map[GroupID]ChangeKind
	relations  map[Relation]ChangeKind
	grants     map[Grant]ChangeKind

	listeners []Listener
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultGrant sets the boolean substituted when evaluation yields
// Unknown. The default is false (deny by default).
func WithDefaultGrant(v bool) Option {
	return func(e *Engine) {
		e.defaultGrant = v
	}
}

// WithLogger attaches a structured logger. The engine logs mutations and
// session transitions at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// NewEngine loads all five enumerations from the source and validates them.
// Duplicate elements and zero-value identifiers fail with
// ErrInvalidIdentifier.
func NewEngine(ctx context.Context, source Source, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	privileges, err := source.Privileges(ctx)
	if err != nil {
		return nil, fmt.Errorf("grants: load privileges: %w", err)
	}
	if e.privileges, err = loadSet(privileges, "privilege"); err != nil {
		return nil, err
	}

	users, err := source.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("grants: load users: %w", err)
	}
	if e.users, err = loadSet(users, "user"); err != nil {
		return nil, err
	}

	groups, err := source.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("grants: load groups: %w", err)
	}
	if e.groups, err = loadSet(groups, "group"); err != nil {
		return nil, err
	}

	relations, err := source.Relations(ctx)
	if err != nil {
		return nil, fmt.Errorf("grants: load relations: %w", err)
	}
	e.relations = make(map[Relation]ChangeKind, len(relations))
	for _, r := range relations {
		if err := validateRelation(r); err != nil {
			return nil, err
		}
		if _, ok := e.relations[r]; ok {
			return nil, fmt.Errorf("grants: relation %s listed twice: %w", r, ErrInvalidIdentifier)
		}
		e.relations[r] = ChangeUnmodified
	}

	grantRows, err := source.Grants(ctx)
	if err != nil {
		return nil, fmt.Errorf("grants: load grants: %w", err)
	}
	e.grants = make(map[Grant]ChangeKind, len(grantRows))
	pairs := make(map[grantPair]bool, len(grantRows))
	for _, g := range grantRows {
		if err := validateGrant(g); err != nil {
			return nil, err
		}
		if pairs[g.pair()] {
			return nil, fmt.Errorf("grants: grant pair %s listed twice: %w", g.pair().Principal, ErrInvalidIdentifier)
		}
		pairs[g.pair()] = true
		e.grants[g] = ChangeUnmodified
	}

	return e, nil
}

// loadSet builds the state map for one identifier set, rejecting zero
// values and duplicates.
func loadSet[K ~string](ids []K, what string) (map[K]ChangeKind, error) {
	rows := make(map[K]ChangeKind, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("grants: zero %s identifier: %w", what, ErrInvalidIdentifier)
		}
		if _, ok := rows[id]; ok {
			return nil, fmt.Errorf("grants: %s %q listed twice: %w", what, string(id), ErrInvalidIdentifier)
		}
		rows[id] = ChangeUnmodified
	}
	return rows, nil
}

func validateRelation(r Relation) error {
	switch r.Kind {
	case RelationMembership:
		if r.Group == "" || r.User == "" || r.SubGroup != "" {
			return fmt.Errorf("grants: malformed membership relation %s: %w", r, ErrInvalidIdentifier)
		}
	case RelationNesting:
		if r.Group == "" || r.SubGroup == "" || r.User != "" {
			return fmt.Errorf("grants: malformed nesting relation %s: %w", r, ErrInvalidIdentifier)
		}
	default:
		return fmt.Errorf("grants: relation without kind: %w", ErrInvalidIdentifier)
	}
	return nil
}

func validateGrant(g Grant) error {
	if g.Privilege == "" {
		return fmt.Errorf("grants: grant without privilege: %w", ErrInvalidIdentifier)
	}
	return validatePrincipal(g.Principal)
}

func validatePrincipal(p Principal) error {
	switch p.Kind {
	case PrincipalUser:
		if p.User == "" || p.Group != "" {
			return fmt.Errorf("grants: malformed user principal: %w", ErrInvalidIdentifier)
		}
	case PrincipalGroup:
		if p.Group == "" || p.User != "" {
			return fmt.Errorf("grants: malformed group principal: %w", ErrInvalidIdentifier)
		}
	default:
		return fmt.Errorf("grants: principal without kind: %w", ErrInvalidIdentifier)
	}
	return nil
}

// DefaultGrant returns the boolean substituted for Unknown evaluations.
func (e *Engine) DefaultGrant() bool {
	return e.defaultGrant
}

// SessionOpen reports whether a staged session is active.
func (e *Engine) SessionOpen() bool {
	return e.session
}

// CreateSession opens a staged session. While it is open, mutations are
// recorded as pending state transitions instead of applied immediately.
// At most one session may be open at a time.
func (e *Engine) CreateSession() error {
	if e.session {
		return ErrSessionAlreadyOpen
	}
	e.session = true
	if e.log != nil {
		e.log.Debug("grants: session opened")
	}
	return nil
}

// CommitSession applies all pending changes and fires one event per applied
// change, in dependency-safe order: grant removals, relation removals, group
// removals, user removals, privilege removals, then privilege additions,
// user additions, group additions, relation additions, grant additions, and
// finally grant updates. The session flag clears and a session-committed
// event fires last.
func (e *Engine) CommitSession() error {
	if !e.session {
		return ErrNoOpenSession
	}

	privileges := e.PendingPrivileges()
	users := e.PendingUsers()
	groups := e.PendingGroups()
	relations := e.PendingRelations()
	grantRows := e.PendingGrants()

	for g, st := range grantRows {
		if st == ChangeRemoved {
			delete(e.grants, g)
			e.publish(Event{Kind: EventGrantRemoved, Grant: g})
		}
	}
	for r, st := range relations {
		if st == ChangeRemoved {
			delete(e.relations, r)
			e.publish(Event{Kind: EventRelationRemoved, Relation: r})
		}
	}
	for id, st := range groups {
		if st == ChangeRemoved {
			delete(e.groups, id)
			e.publish(Event{Kind: EventGroupRemoved, Group: id})
		}
	}
	for id, st := range users {
		if st == ChangeRemoved {
			delete(e.users, id)
			e.publish(Event{Kind: EventUserRemoved, User: id})
		}
	}
	for id, st := range privileges {
		if st == ChangeRemoved {
			delete(e.privileges, id)
			e.publish(Event{Kind: EventPrivilegeRemoved, Privilege: id})
		}
	}

	for id, st := range privileges {
		if st == ChangeAdded {
			e.privileges[id] = ChangeUnmodified
			e.publish(Event{Kind: EventPrivilegeAdded, Privilege: id})
		}
	}
	for id, st := range users {
		if st == ChangeAdded {
			e.users[id] = ChangeUnmodified
			e.publish(Event{Kind: EventUserAdded, User: id})
		}
	}
	for id, st := range groups {
		if st == ChangeAdded {
			e.groups[id] = ChangeUnmodified
			e.publish(Event{Kind: EventGroupAdded, Group: id})
		}
	}
	for r, st := range relations {
		if st == ChangeAdded {
			e.relations[r] = ChangeUnmodified
			e.publish(Event{Kind: EventRelationAdded, Relation: r})
		}
	}
	for g, st := range grantRows {
		if st == ChangeAdded {
			e.grants[g] = ChangeUnmodified
			e.publish(Event{Kind: EventGrantAdded, Grant: g})
		}
	}

	for g, st := range grantRows {
		if st == ChangeUpdated {
			e.grants[g] = ChangeUnmodified
			delete(e.grants, g.inverted())
			e.publish(Event{Kind: EventGrantUpdated, Grant: g})
		}
	}

	e.session = false
	if e.log != nil {
		e.log.Debug("grants: session committed",
			zap.Int("privileges", len(privileges)),
			zap.Int("users", len(users)),
			zap.Int("groups", len(groups)),
			zap.Int("relations", len(relations)),
			zap.Int("grants", len(grantRows)),
		)
	}
	e.publish(Event{Kind: EventSessionCommitted})
	return nil
}

// RollbackSession discards all pending changes: rows staged Removed revert
// to Unmodified, rows staged Added are dropped entirely. The session flag
// clears; no change events fire, only the session-rolled-back lifecycle
// event.
func (e *Engine) RollbackSession() error {
	if !e.session {
		return ErrNoOpenSession
	}
	rollbackRows(e.privileges)
	rollbackRows(e.users)
	rollbackRows(e.groups)
	rollbackRows(e.relations)
	rollbackRows(e.grants)
	e.session = false
	if e.log != nil {
		e.log.Debug("grants: session rolled back")
	}
	e.publish(Event{Kind: EventSessionRolledBack})
	return nil
}

func rollbackRows[K comparable](rows map[K]ChangeKind) {
	for key, st := range rows {
		switch st {
		case ChangeRemoved:
			rows[key] = ChangeUnmodified
		case ChangeAdded:
			delete(rows, key)
		}
	}
}

// PendingPrivileges returns the privileges with a staged change, keyed by
// identifier. Empty outside a session.
func (e *Engine) PendingPrivileges() map[PrivilegeID]ChangeKind {
	return pendingRows(e.privileges, e.session)
}

// PendingUsers returns the users with a staged change.
func (e *Engine) PendingUsers() map[UserID]ChangeKind {
	return pendingRows(e.users, e.session)
}

// PendingGroups returns the groups with a staged change.
func (e *Engine) PendingGroups() map[GroupID]ChangeKind {
	return pendingRows(e.groups, e.session)
}

// PendingRelations returns the relations with a staged change.
func (e *Engine) PendingRelations() map[Relation]ChangeKind {
	return pendingRows(e.relations, e.session)
}

func pendingRows[K comparable](rows map[K]ChangeKind, session bool) map[K]ChangeKind {
	pending := make(map[K]ChangeKind)
	if !session {
		return pending
	}
	for key, st := range rows {
		if st != ChangeUnmodified {
			pending[key] = st
		}
	}
	return pending
}

// PendingGrants returns the grants with a staged change. Rows sharing a
// (privilege, principal) pair are grouped: a staged-Removed old boolean
// plus a staged-Added new boolean report as a single ChangeUpdated row
// carrying the new boolean.
func (e *Engine) PendingGrants() map[Grant]ChangeKind {
	pending := make(map[Grant]ChangeKind)
	if !e.session {
		return pending
	}
	byPair := make(map[grantPair][]Grant)
	for g, st := range e.grants {
		if st != ChangeUnmodified {
			byPair[g.pair()] = append(byPair[g.pair()], g)
		}
	}
	for _, rows := range byPair {
		if len(rows) == 1 {
			pending[rows[0]] = e.grants[rows[0]]
			continue
		}
		// Two rows with opposite booleans: the Added one carries the new
		// value, the Removed one is the superseded old value.
		for _, g := range rows {
			if e.grants[g] == ChangeAdded {
				pending[g] = ChangeUpdated
			}
		}
	}
	return pending
}

func logEventFields(ev Event) []zap.Field {
	fields := []zap.Field{zap.String("kind", string(ev.Kind))}
	switch {
	case ev.Privilege != "":
		fields = append(fields, zap.String("privilege", string(ev.Privilege)))
	case ev.User != "":
		fields = append(fields, zap.String("user", string(ev.User)))
	case ev.Group != "":
		fields = append(fields, zap.String("group", string(ev.Group)))
	case ev.Relation.Kind != 0:
		fields = append(fields, zap.Stringer("relation", ev.Relation))
	case ev.Grant.Principal.Kind != 0:
		fields = append(fields, zap.Stringer("grant", ev.Grant))
	}
	return fields
}
