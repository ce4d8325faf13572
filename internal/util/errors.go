// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input provided")
	ErrConflict     = errors.New("conflicting state")

	// Primary-member invariant violations. All of them are conflicts.
	ErrPrimaryMemberExists = conflict("account already has a primary member")
	ErrLastMember          = conflict("cannot delete the last member of an account")
	ErrNothingToDelete     = conflict("account has no non-primary members to delete")
	ErrNoPrimaryMember     = conflict("account has no primary member")
)

type conflictError struct{ msg string }

func conflict(msg string) error { return &conflictError{msg: msg} }

func (e *conflictError) Error() string { return e.msg }

// Is makes every conflictError match ErrConflict.
func (e *conflictError) Is(target error) bool { return target == ErrConflict }

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
