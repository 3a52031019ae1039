package grants

import "context"

// The engine exposes its visible state through the same five enumerations
// it loads from, so *Engine satisfies Source: a live engine can seed a
// fresh engine or a persistent store. While a session is open the
// enumerations reflect the post-staging view.

// Privileges returns every visible privilege identifier.
func (e *Engine) Privileges(ctx context.Context) ([]PrivilegeID, error) {
	var out []PrivilegeID
	for id, st := range e.privileges {
		if st != ChangeRemoved {
			out = append(out, id)
		}
	}
	return out, nil
}

// Users returns every visible user identifier.
func (e *Engine) Users(ctx context.Context) ([]UserID, error) {
	var out []UserID
	for id, st := range e.users {
		if st != ChangeRemoved {
			out = append(out, id)
		}
	}
	return out, nil
}

// Groups returns every visible group identifier.
func (e *Engine) Groups(ctx context.Context) ([]GroupID, error) {
	var out []GroupID
	for id, st := range e.groups {
		if st != ChangeRemoved {
			out = append(out, id)
		}
	}
	return out, nil
}

// Relations returns every visible relation.
func (e *Engine) Relations(ctx context.Context) ([]Relation, error) {
	var out []Relation
	for r, st := range e.relations {
		if st != ChangeRemoved {
			out = append(out, r)
		}
	}
	return out, nil
}

// Grants returns every visible grant row.
func (e *Engine) Grants(ctx context.Context) ([]Grant, error) {
	var out []Grant
	for g, st := range e.grants {
		if st != ChangeRemoved {
			out = append(out, g)
		}
	}
	return out, nil
}

// Compile-time interface check
var _ Source = (*Engine)(nil)
