package complaint

import "errors"

var (
	// ErrComplaintNotFound indicates the record doesn't exist.
	ErrComplaintNotFound = errors.New("complaint not found")
	// ErrInvalidInput indicates invalid input for complaint operations.
	ErrInvalidInput = errors.New("invalid complaint input")
	// ErrUnknownState indicates a label outside the state enumeration.
	ErrUnknownState = errors.New("unknown complaint state")
	// ErrInvalidTransition indicates a rejected workflow state jump.
	ErrInvalidTransition = errors.New("invalid complaint state transition")
	// ErrBackend indicates the generative backend call failed or returned
	// empty text. It triggers rollback of optimistic state and is the only
	// parse-adjacent failure surfaced to the user.
	ErrBackend = errors.New("assistant backend failure")
)
