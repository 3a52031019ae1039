package grants

import (
	"fmt"
)

// AddPrivilege registers a new privilege identifier. Adding an identifier
// already present in the visible state fails with ErrDuplicateEntity.
// Inside a session, adding an identifier staged for removal undoes the
// pending removal instead.
func (e *Engine) AddPrivilege(id PrivilegeID) error {
	if id == "" {
		return fmt.Errorf("grants: add privilege: %w", ErrInvalidIdentifier)
	}
	direct, err := stageAdd(e.privileges, id, e.session)
	if err != nil {
		return fmt.Errorf("grants: privilege %q: %w", string(id), err)
	}
	if direct {
		e.publish(Event{Kind: EventPrivilegeAdded, Privilege: id})
	}
	return nil
}

// RemovePrivilege deletes a privilege identifier. Removing an absent
// identifier is a no-op. Grants referencing the removed privilege are not
// cascade-deleted; cleaning them up is the caller's responsibility.
func (e *Engine) RemovePrivilege(id PrivilegeID) {
	if stageRemove(e.privileges, id, e.session) {
		e.publish(Event{Kind: EventPrivilegeRemoved, Privilege: id})
	}
}

// AddUser registers a new user identifier.
func (e *Engine) AddUser(id UserID) error {
	if id == "" {
		return fmt.Errorf("grants: add user: %w", ErrInvalidIdentifier)
	}
	direct, err := stageAdd(e.users, id, e.session)
	if err != nil {
		return fmt.Errorf("grants: user %q: %w", string(id), err)
	}
	if direct {
		e.publish(Event{Kind: EventUserAdded, User: id})
	}
	return nil
}

// RemoveUser deletes a user identifier. Removing an absent identifier is a
// no-op; relations and grants referencing the user become orphaned reads.
func (e *Engine) RemoveUser(id UserID) {
	if stageRemove(e.users, id, e.session) {
		e.publish(Event{Kind: EventUserRemoved, User: id})
	}
}

// AddGroup registers a new group identifier.
func (e *Engine) AddGroup(id GroupID) error {
	if id == "" {
		return fmt.Errorf("grants: add group: %w", ErrInvalidIdentifier)
	}
	direct, err := stageAdd(e.groups, id, e.session)
	if err != nil {
		return fmt.Errorf("grants: group %q: %w", string(id), err)
	}
	if direct {
		e.publish(Event{Kind: EventGroupAdded, Group: id})
	}
	return nil
}

// RemoveGroup deletes a group identifier. Removing an absent identifier is
// a no-op; relations and grants referencing the group become orphaned reads.
func (e *Engine) RemoveGroup(id GroupID) {
	if stageRemove(e.groups, id, e.session) {
		e.publish(Event{Kind: EventGroupRemoved, Group: id})
	}
}

// AttachUserToGroup places user directly in group. Attaching an already
// present relation fails with ErrDuplicateEntity.
func (e *Engine) AttachUserToGroup(user UserID, group GroupID) error {
	if user == "" || group == "" {
		return fmt.Errorf("grants: attach user to group: %w", ErrInvalidIdentifier)
	}
	relation := NewMembership(group, user)
	direct, err := stageAdd(e.relations, relation, e.session)
	if err != nil {
		return fmt.Errorf("grants: relation %s: %w", relation, err)
	}
	if direct {
		e.publish(Event{Kind: EventRelationAdded, Relation: relation})
	}
	return nil
}

// AttachGroupToGroup nests subGroup directly under group. The nesting graph
// must stay acyclic: attaching a group to itself, to one of its implicit
// descendants, or to one of its implicit ancestors fails with
// ErrCycleRejected. The check runs against the currently visible view
// before anything is staged.
func (e *Engine) AttachGroupToGroup(subGroup GroupID, group GroupID) error {
	if subGroup == "" || group == "" {
		return fmt.Errorf("grants: attach group to group: %w", ErrInvalidIdentifier)
	}
	if subGroup == group {
		return fmt.Errorf("grants: group %q cannot nest into itself: %w", string(group), ErrCycleRejected)
	}
	if containsGroup(e.ImplicitSubgroups(group), subGroup) ||
		containsGroup(e.ImplicitParentGroupsOfGroup(group), subGroup) {
		return fmt.Errorf("grants: nesting %q under %q makes a circular reference: %w",
			string(subGroup), string(group), ErrCycleRejected)
	}
	relation := NewNesting(group, subGroup)
	direct, err := stageAdd(e.relations, relation, e.session)
	if err != nil {
		return fmt.Errorf("grants: relation %s: %w", relation, err)
	}
	if direct {
		e.publish(Event{Kind: EventRelationAdded, Relation: relation})
	}
	return nil
}

// DetachUserFromGroup removes the direct membership of user in group.
// Detaching an absent relation is a no-op.
func (e *Engine) DetachUserFromGroup(user UserID, group GroupID) {
	relation := NewMembership(group, user)
	if stageRemove(e.relations, relation, e.session) {
		e.publish(Event{Kind: EventRelationRemoved, Relation: relation})
	}
}

// DetachGroupFromGroup removes the direct nesting of subGroup under group.
// Detaching an absent relation is a no-op.
func (e *Engine) DetachGroupFromGroup(subGroup GroupID, group GroupID) {
	relation := NewNesting(group, subGroup)
	if stageRemove(e.relations, relation, e.session) {
		e.publish(Event{Kind: EventRelationRemoved, Relation: relation})
	}
}

// SetGrantForUser installs, replaces or clears the explicit grant for
// (privilege, user). A non-nil allow installs that boolean and atomically
// displaces the opposite one if present; nil clears any grant for the pair.
func (e *Engine) SetGrantForUser(privilege PrivilegeID, user UserID, allow *bool) error {
	if user == "" {
		return fmt.Errorf("grants: set grant for user: %w", ErrInvalidIdentifier)
	}
	return e.setGrant(privilege, UserPrincipal(user), allow)
}

// SetGrantForGroup installs, replaces or clears the explicit grant for
// (privilege, group).
func (e *Engine) SetGrantForGroup(privilege PrivilegeID, group GroupID, allow *bool) error {
	if group == "" {
		return fmt.Errorf("grants: set grant for group: %w", ErrInvalidIdentifier)
	}
	return e.setGrant(privilege, GroupPrincipal(group), allow)
}

func (e *Engine) setGrant(privilege PrivilegeID, principal Principal, allow *bool) error {
	if privilege == "" {
		return fmt.Errorf("grants: set grant: %w", ErrInvalidIdentifier)
	}
	if allow == nil {
		e.clearGrant(privilege, principal)
		return nil
	}

	row := NewGrant(privilege, principal, *allow)
	inverted := row.inverted()

	if e.session {
		if st, ok := e.grants[inverted]; ok {
			switch st {
			case ChangeAdded:
				delete(e.grants, inverted)
			case ChangeUnmodified:
				e.grants[inverted] = ChangeRemoved
			}
		}
		if st, ok := e.grants[row]; ok {
			if st == ChangeRemoved {
				e.grants[row] = ChangeUnmodified
			}
			// Added or Unmodified: the boolean is already in place.
		} else {
			e.grants[row] = ChangeAdded
		}
		return nil
	}

	if _, ok := e.grants[inverted]; ok {
		delete(e.grants, inverted)
		e.grants[row] = ChangeUnmodified
		e.publish(Event{Kind: EventGrantUpdated, Grant: row})
	} else if _, ok := e.grants[row]; !ok {
		e.grants[row] = ChangeUnmodified
		e.publish(Event{Kind: EventGrantAdded, Grant: row})
	}
	return nil
}

func (e *Engine) clearGrant(privilege PrivilegeID, principal Principal) {
	pair := grantPair{Privilege: privilege, Principal: principal}
	for g, st := range e.grants {
		if g.pair() != pair {
			continue
		}
		if e.session {
			switch st {
			case ChangeAdded:
				delete(e.grants, g)
			case ChangeUnmodified:
				e.grants[g] = ChangeRemoved
			}
		} else {
			delete(e.grants, g)
			e.publish(Event{Kind: EventGrantRemoved, Grant: g})
		}
	}
}

// stageAdd implements the shared Add/Attach state machine. It reports
// whether the row was applied directly (and so needs an event fired).
func stageAdd[K comparable](rows map[K]ChangeKind, key K, session bool) (direct bool, err error) {
	st, ok := rows[key]
	if session {
		if ok {
			if st == ChangeRemoved {
				rows[key] = ChangeUnmodified
				return false, nil
			}
			return false, ErrDuplicateEntity
		}
		rows[key] = ChangeAdded
		return false, nil
	}
	if ok {
		return false, ErrDuplicateEntity
	}
	rows[key] = ChangeUnmodified
	return true, nil
}

// stageRemove implements the shared Remove/Detach state machine. Removing
// an absent row is a no-op either way.
func stageRemove[K comparable](rows map[K]ChangeKind, key K, session bool) (direct bool) {
	st, ok := rows[key]
	if !ok {
		return false
	}
	if session {
		if st == ChangeAdded {
			delete(rows, key)
		} else {
			rows[key] = ChangeRemoved
		}
		return false
	}
	delete(rows, key)
	return true
}

func containsGroup(ids []GroupID, id GroupID) bool {
	for _, g := range ids {
		if g == id {
			return true
		}
	}
	return false
}
