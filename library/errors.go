// Package library implements the circulation core: a flat-file record store,
// the catalog/inventory manager, the checkout ledger and the due-date
// reminder engine.
package library

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected business outcomes. Callers distinguish them
// with errors.Is; none of these indicate a fault in the store itself.
var (
	// ErrInvalidCopies is returned when AddBook is asked for a non-positive
	// number of copies.
	ErrInvalidCopies = errors.New("copies must be positive")

	// ErrBookNotFound is returned when no catalog entry has the barcode.
	ErrBookNotFound = errors.New("book not found")

	// ErrNoCopyAvailable is returned when every copy of a title is out.
	ErrNoCopyAvailable = errors.New("no copy available")

	// ErrNotCheckedOut is returned by CheckIn when the copy has no open loan.
	ErrNotCheckedOut = errors.New("copy is not checked out")

	// ErrPatronNotFound is returned when no patron has the user id.
	ErrPatronNotFound = errors.New("patron not found")

	// ErrDuplicateEmail is returned by RegisterPatron when the email is
	// already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrStoreBusy is returned when a collection lock cannot be acquired
	// within the configured timeout.
	ErrStoreBusy = errors.New("store busy")
)

// PersistenceError wraps an I/O or format failure for one collection.
// Operations that hit one leave the collection's file unchanged.
type PersistenceError struct {
	Resource string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.Resource, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
