package grants

// UserContext is a read-only view of the engine bound to one user.
// It is a thin delegation layer: every call reads the engine's current
// effective state, including staged changes while a session is open.
type UserContext struct {
	engine *Engine
	user   UserID
}

// UserContext returns a view bound to the given user.
func (e *Engine) UserContext(user UserID) *UserContext {
	return &UserContext{engine: e, user: user}
}

// IsGranted reports whether privilege is effectively granted to the bound
// user, after default substitution.
func (c *UserContext) IsGranted(privilege PrivilegeID) bool {
	return c.engine.EvaluateForUserOrDefault(privilege, c.user)
}

// Privileges returns every privilege effectively granted to the bound user.
func (c *UserContext) Privileges() []PrivilegeID {
	return c.engine.UserPrivileges(c.user)
}

// GroupContext is a read-only view of the engine bound to one group.
type GroupContext struct {
	engine *Engine
	group  GroupID
}

// GroupContext returns a view bound to the given group.
func (e *Engine) GroupContext(group GroupID) *GroupContext {
	return &GroupContext{engine: e, group: group}
}

// IsGranted reports whether privilege is effectively granted to the bound
// group, after default substitution.
func (c *GroupContext) IsGranted(privilege PrivilegeID) bool {
	return c.engine.EvaluateForGroupOrDefault(privilege, c.group)
}

// Privileges returns every privilege effectively granted to the bound group.
func (c *GroupContext) Privileges() []PrivilegeID {
	return c.engine.GroupPrivileges(c.group)
}
