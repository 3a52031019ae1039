package grants

// Hierarchy queries. "Explicit" queries are strictly one hop; "Implicit"
// queries are the transitive closure, visiting each group at most once.
// All queries read the session-aware view and return elements in
// unspecified order.

// ExplicitSubgroups returns the groups nested directly under group.
func (e *Engine) ExplicitSubgroups(group GroupID) []GroupID {
	var subs []GroupID
	for r, st := range e.relations {
		if st == ChangeRemoved || r.Kind != RelationNesting {
			continue
		}
		if r.Group == group {
			subs = append(subs, r.SubGroup)
		}
	}
	return subs
}

// ExplicitMembers returns the users directly in group.
func (e *Engine) ExplicitMembers(group GroupID) []UserID {
	var users []UserID
	for r, st := range e.relations {
		if st == ChangeRemoved || r.Kind != RelationMembership {
			continue
		}
		if r.Group == group {
			users = append(users, r.User)
		}
	}
	return users
}

// ExplicitParentGroupsOfUser returns the groups user belongs to directly.
func (e *Engine) ExplicitParentGroupsOfUser(user UserID) []GroupID {
	var groups []GroupID
	for r, st := range e.relations {
		if st == ChangeRemoved || r.Kind != RelationMembership {
			continue
		}
		if r.User == user {
			groups = append(groups, r.Group)
		}
	}
	return groups
}

// ExplicitParentGroupsOfGroup returns the groups group is nested under
// directly.
func (e *Engine) ExplicitParentGroupsOfGroup(group GroupID) []GroupID {
	var groups []GroupID
	for r, st := range e.relations {
		if st == ChangeRemoved || r.Kind != RelationNesting {
			continue
		}
		if r.SubGroup == group {
			groups = append(groups, r.Group)
		}
	}
	return groups
}

// ImplicitSubgroups returns the transitive closure of ExplicitSubgroups:
// every group reachable downward from group, each at most once. The group
// itself is not included.
func (e *Engine) ImplicitSubgroups(group GroupID) []GroupID {
	return e.closure(group, e.ExplicitSubgroups)
}

// ImplicitParentGroupsOfGroup returns every group reachable upward from
// group, each at most once.
func (e *Engine) ImplicitParentGroupsOfGroup(group GroupID) []GroupID {
	return e.closure(group, e.ExplicitParentGroupsOfGroup)
}

// ImplicitParentGroupsOfUser returns every group user belongs to, directly
// or through nesting, each at most once.
func (e *Engine) ImplicitParentGroupsOfUser(user UserID) []GroupID {
	visited := make(map[GroupID]bool)
	var out []GroupID
	queue := e.ExplicitParentGroupsOfUser(user)
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		if visited[g] {
			continue
		}
		visited[g] = true
		out = append(out, g)
		queue = append(queue, e.ExplicitParentGroupsOfGroup(g)...)
	}
	return out
}

// ImplicitMembers returns the users in group or in any of its implicit
// subgroups, each at most once.
func (e *Engine) ImplicitMembers(group GroupID) []UserID {
	seen := make(map[UserID]bool)
	var out []UserID
	collect := func(g GroupID) {
		for _, u := range e.ExplicitMembers(g) {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	collect(group)
	for _, g := range e.ImplicitSubgroups(group) {
		collect(g)
	}
	return out
}

// closure walks the one-hop query step from start until no new group
// appears. A visited set guarantees termination even if the relation set
// were somehow cyclic; start itself is never produced unless reachable
// from itself, which the nesting invariant forbids.
func (e *Engine) closure(start GroupID, step func(GroupID) []GroupID) []GroupID {
	visited := make(map[GroupID]bool)
	var out []GroupID
	queue := step(start)
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		if visited[g] || g == start {
			continue
		}
		visited[g] = true
		out = append(out, g)
		queue = append(queue, step(g)...)
	}
	return out
}
