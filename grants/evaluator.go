package grants

// GrantForUser returns the explicit grant recorded directly on user for
// privilege, or Unknown if none exists.
func (e *Engine) GrantForUser(privilege PrivilegeID, user UserID) Decision {
	return e.explicitGrant(privilege, UserPrincipal(user))
}

// GrantForGroup returns the explicit grant recorded directly on group for
// privilege, or Unknown if none exists.
func (e *Engine) GrantForGroup(privilege PrivilegeID, group GroupID) Decision {
	return e.explicitGrant(privilege, GroupPrincipal(group))
}

func (e *Engine) explicitGrant(privilege PrivilegeID, principal Principal) Decision {
	pair := grantPair{Privilege: privilege, Principal: principal}
	for g, st := range e.grants {
		if st == ChangeRemoved {
			continue
		}
		if g.pair() == pair {
			return decisionOf(g.Allow)
		}
	}
	return Unknown
}

// EvaluateForGroup resolves the effective grant of privilege for group by
// combining the group's own explicit grant with those of its implicit
// ancestors. A deny anywhere on the self-or-ancestor chain wins over any
// allow, including an allow recorded directly on the group itself.
func (e *Engine) EvaluateForGroup(privilege PrivilegeID, group GroupID) Decision {
	result := e.GrantForGroup(privilege, group)
	if result == Deny {
		return Deny
	}
	for _, parent := range e.ImplicitParentGroupsOfGroup(group) {
		switch e.GrantForGroup(privilege, parent) {
		case Deny:
			return Deny
		case Allow:
			result = Allow
		}
	}
	return result
}

// EvaluateForUser resolves the effective grant of privilege for user.
// A grant set directly on the user is authoritative and bypasses group
// precedence entirely; otherwise the user's implicit parent groups are
// scanned with deny-overrides.
func (e *Engine) EvaluateForUser(privilege PrivilegeID, user UserID) Decision {
	if d := e.GrantForUser(privilege, user); d != Unknown {
		return d
	}
	result := Unknown
	for _, group := range e.ImplicitParentGroupsOfUser(user) {
		switch e.GrantForGroup(privilege, group) {
		case Deny:
			return Deny
		case Allow:
			result = Allow
		}
	}
	return result
}

// EvaluateForGroupOrDefault substitutes the engine default for Unknown.
func (e *Engine) EvaluateForGroupOrDefault(privilege PrivilegeID, group GroupID) bool {
	return e.EvaluateForGroup(privilege, group).Bool(e.defaultGrant)
}

// EvaluateForUserOrDefault substitutes the engine default for Unknown.
func (e *Engine) EvaluateForUserOrDefault(privilege PrivilegeID, user UserID) bool {
	return e.EvaluateForUser(privilege, user).Bool(e.defaultGrant)
}

// UserPrivileges returns every privilege effectively granted to user,
// after default substitution. Order is unspecified.
func (e *Engine) UserPrivileges(user UserID) []PrivilegeID {
	var granted []PrivilegeID
	for id, st := range e.privileges {
		if st == ChangeRemoved {
			continue
		}
		if e.EvaluateForUserOrDefault(id, user) {
			granted = append(granted, id)
		}
	}
	return granted
}

// GroupPrivileges returns every privilege effectively granted to group,
// after default substitution. Order is unspecified.
func (e *Engine) GroupPrivileges(group GroupID) []PrivilegeID {
	var granted []PrivilegeID
	for id, st := range e.privileges {
		if st == ChangeRemoved {
			continue
		}
		if e.EvaluateForGroupOrDefault(id, group) {
			granted = append(granted, id)
		}
	}
	return granted
}
