package memstore

import "errors"

// ErrNotFound is returned by patch/delete when the id has no prior version.
var ErrNotFound = errors.New("memstore: entry not found")

// InvalidEntryError signals a validation failure that must be rejected
// before any I/O, matching the handler's invalid_request error code.
type InvalidEntryError struct {
	Reason string
}

func (e InvalidEntryError) Error() string { return "memstore: invalid entry: " + e.Reason }

// ErrInvalidEntry constructs an InvalidEntryError.
func ErrInvalidEntry(reason string) error { return InvalidEntryError{Reason: reason} }

// IsInvalidEntry reports whether err is (or wraps) an InvalidEntryError.
func IsInvalidEntry(err error) bool {
	var ie InvalidEntryError
	return errors.As(err, &ie)
}
