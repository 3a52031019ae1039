package grants

import (
	"context"
)

// Source defines the read queries the engine loads its state from.
// Implementations can use in-memory storage, SQL databases, or any other
// backend; each enumeration must be finite and yield every element once,
// with no ordering contract.
type Source interface {
	// Privileges returns every privilege identifier.
	Privileges(ctx context.Context) ([]PrivilegeID, error)

	// Users returns every user identifier.
	Users(ctx context.Context) ([]UserID, error)

	// Groups returns every group identifier.
	Groups(ctx context.Context) ([]GroupID, error)

	// Relations returns every membership and nesting relation.
	Relations(ctx context.Context) ([]Relation, error)

	// Grants returns every explicit grant row.
	Grants(ctx context.Context) ([]Grant, error)
}
