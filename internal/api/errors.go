package api

import (
	"errors"
	"fmt"

	"github.com/fieldhouse/fieldhouse/internal/social"
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// Application error codes, in the JSON-RPC implementation-defined range.
// Each social-core failure maps to its own code with a distinct message, so
// clients can tell "my cached state was stale" from "the server rejected
// this".
const (
	CodeInvalidOperation  = -32001
	CodeAlreadyExists     = -32002
	CodeAlreadyFollowing  = -32003
	CodeInvalidTransition = -32004
	CodeNotFound          = -32005
)

// FromError maps a handler error to an API error. Typed social-core errors
// get their dedicated code; anything else is an internal server error.
func FromError(err error) *Error {
	switch {
	case errors.Is(err, social.ErrInvalidOperation):
		return NewError(CodeInvalidOperation, "Invalid operation")
	case errors.Is(err, social.ErrAlreadyExists):
		return NewError(CodeAlreadyExists, "A follow request already exists")
	case errors.Is(err, social.ErrAlreadyFollowing):
		return NewError(CodeAlreadyFollowing, "Already following this account")
	case errors.Is(err, social.ErrInvalidTransition):
		return NewError(CodeInvalidTransition, "Request was already handled")
	case errors.Is(err, social.ErrNotFound):
		return NewError(CodeNotFound, "Not found, it may have been removed")
	default:
		return NewError(-32000, "Server error")
	}
}
