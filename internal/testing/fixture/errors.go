package fixture

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateFixture is returned when one load request names a fixture twice
	ErrDuplicateFixture = errors.New("duplicate fixture")

	// ErrMissingFixture is returned when an identifier resolves to no fixture type
	ErrMissingFixture = errors.New("missing fixture")

	// ErrInsertFailed is returned when seed rows could not be inserted
	ErrInsertFailed = errors.New("fixture insert failed")

	// ErrTruncateFailed is returned when a fixture table could not be emptied
	ErrTruncateFailed = errors.New("fixture truncate failed")
)

// DuplicateFixtureError names the identifier repeated in a load request
type DuplicateFixtureError struct {
	Identifier string
}

// Error implements the error interface
func (e *DuplicateFixtureError) Error() string {
	return fmt.Sprintf("found duplicate fixture `%s`", e.Identifier)
}

// Unwrap returns ErrDuplicateFixture
func (e *DuplicateFixtureError) Unwrap() error {
	return ErrDuplicateFixture
}

// MissingFixtureError names an identifier that does not resolve to a
// constructible fixture type.
type MissingFixtureError struct {
	Identifier string
	TypeName   string
	Err        error
}

// Error implements the error interface
func (e *MissingFixtureError) Error() string {
	msg := fmt.Sprintf("could not find fixture `%s`", e.Identifier)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrMissingFixture and the factory error, if any
func (e *MissingFixtureError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingFixture}
	}
	return []error{ErrMissingFixture, e.Err}
}

// InsertError wraps the failure to insert the seed rows of a table
type InsertError struct {
	Table string
	Err   error
}

// Error implements the error interface
func (e *InsertError) Error() string {
	return fmt.Sprintf("unable to insert rows for table `%s`: %v", e.Table, e.Err)
}

// Unwrap returns ErrInsertFailed and the underlying cause
func (e *InsertError) Unwrap() []error {
	return []error{ErrInsertFailed, e.Err}
}

// TruncateError wraps the failure to empty a table
type TruncateError struct {
	Table string
	Err   error
}

// Error implements the error interface
func (e *TruncateError) Error() string {
	return fmt.Sprintf("unable to truncate table `%s`: %v", e.Table, e.Err)
}

// Unwrap returns ErrTruncateFailed and the underlying cause
func (e *TruncateError) Unwrap() []error {
	return []error{ErrTruncateFailed, e.Err}
}
