package coordination

import "errors"

// Sentinel outcomes of coordination-store operations. Callers are expected to
// branch on these rather than treat them as fatal: an invalid transition or a
// lost race means a concurrent actor already handled the session.
var (
	// ErrNotFound is returned when no record exists for the given session
	ErrNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned when the requested status change is
	// not in the whitelist table; nothing is mutated
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict is returned when the stored status no longer matches the
	// expected one, i.e. another actor advanced the session first
	ErrConflict = errors.New("status changed by concurrent actor")

	// ErrQueueEmpty is returned by ClaimNext when the waiting queue has no entries
	ErrQueueEmpty = errors.New("waiting queue empty")

	// ErrNoConsultant is returned when no ready consultant could be locked
	ErrNoConsultant = errors.New("no lockable consultant available")
)
