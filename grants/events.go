package grants

// EventKind identifies the payload of a change event.
type EventKind string

const (
	EventPrivilegeAdded   EventKind = "privilege.added"
	EventPrivilegeRemoved EventKind = "privilege.removed"

	EventUserAdded   EventKind = "user.added"
	EventUserRemoved EventKind = "user.removed"

	EventGroupAdded   EventKind = "group.added"
	EventGroupRemoved EventKind = "group.removed"

	EventRelationAdded   EventKind = "relation.added"
	EventRelationRemoved EventKind = "relation.removed"

	EventGrantAdded   EventKind = "grant.added"
	EventGrantRemoved EventKind = "grant.removed"
	EventGrantUpdated EventKind = "grant.updated"

	EventSessionCommitted  EventKind = "session.committed"
	EventSessionRolledBack EventKind = "session.rolledback"
)

// Event is one committed change. Only the payload fields matching the kind
// are set: Privilege for privilege events, User for user events, Group for
// group events, Relation for relation events, Grant for grant events.
// Session lifecycle events carry no payload.
//
// For EventGrantUpdated the Grant field carries the new boolean; the
// superseded opposite-boolean row is dropped in the same step.
type Event struct {
	Kind      EventKind
	Privilege PrivilegeID
	User      UserID
	Group     GroupID
	Relation  Relation
	Grant     Grant
}

// Listener observes committed changes. Listeners run synchronously in the
// mutating call (direct mode) or during CommitSession, in the documented
// apply order, so an external projection stays consistent at every step.
// A listener must not mutate the engine.
type Listener func(Event)

// Subscribe registers a listener for all subsequent events.
func (e *Engine) Subscribe(fn Listener) {
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) publish(ev Event) {
	if e.log != nil {
		e.log.Debug("grants: event", logEventFields(ev)...)
	}
	for _, fn := range e.listeners {
		fn(ev)
	}
}
