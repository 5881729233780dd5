package models

import "github.com/pkg/errors"

// Domain error kinds. Engine operations return these (possibly wrapped)
// for expected business-rule violations; anything else is a storage failure.
var (
	// ErrNotFound means the referenced book, transaction, or fine does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means no copies of the book are free to issue
	ErrUnavailable = errors.New("book is not available")

	// ErrLimitExceeded means the borrower is at the maximum number of open loans
	ErrLimitExceeded = errors.New("user has reached maximum book limit")

	// ErrInvalidState means the operation is illegal for the record's current
	// lifecycle state, e.g. returning a loan that is not issued or paying a
	// fine that is not pending
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrValidation means the input was malformed
	ErrValidation = errors.New("validation failed")
)
