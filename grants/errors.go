package grants

import "errors"

// All engine errors are synchronous, non-retryable and caller-fixable.
// A failed mutation leaves state unchanged: every legality check runs
// before anything is modified.
var (
	// ErrDuplicateEntity reports adding a privilege, user, group, relation
	// or grant pair that already exists in the currently visible state.
	ErrDuplicateEntity = errors.New("grants: duplicate entity")

	// ErrCycleRejected reports nesting a group under itself or under one
	// of its own descendants or ancestors.
	ErrCycleRejected = errors.New("grants: cycle rejected")

	// ErrInvalidIdentifier reports use of the reserved zero identifier,
	// or a non-unique input set at load time.
	ErrInvalidIdentifier = errors.New("grants: invalid identifier")

	// ErrSessionAlreadyOpen reports opening a session while one is active.
	ErrSessionAlreadyOpen = errors.New("grants: session already open")

	// ErrNoOpenSession reports committing or rolling back with no active
	// session.
	ErrNoOpenSession = errors.New("grants: no open session")
)
