package social

import "errors"

// Typed failures returned by the engine, sink and views. The API layer maps
// each to a distinct JSON-RPC error code so clients can tell a stale local
// cache ("request no longer exists") apart from a rejected action.
var (
	// ErrInvalidOperation covers malformed input: self-follow, self-remove,
	// unknown identity, empty comment body.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrAlreadyExists is returned to the loser of a concurrent duplicate
	// follow, and to a follow over an edge that is still pending.
	ErrAlreadyExists = errors.New("relationship already exists")

	// ErrAlreadyFollowing is returned for a follow over an accepted edge.
	ErrAlreadyFollowing = errors.New("already following")

	// ErrInvalidTransition is returned when a relationship or notification
	// is no longer in a state that permits the requested action, e.g. a
	// second accept of the same request.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotFound is returned when the relationship, notification, post or
	// account being acted on does not exist, including the case where a
	// concurrent decline or unfollow already deleted it.
	ErrNotFound = errors.New("not found")
)
