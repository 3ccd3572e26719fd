package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned on any id/hash/url lookup miss. It is deliberately
// also used for private bookmarks accessed without the right key, so that
// existence is not leaked.
var ErrNotFound = errors.New("bookmark not found")

// DuplicateURLError is returned by Add when the URL is already stored.
type DuplicateURLError struct {
	URL        string
	ExistingID int
}

func (e *DuplicateURLError) Error() string {
	return fmt.Sprintf("url already stored: %s (bookmark %d)", e.URL, e.ExistingID)
}

// ValidationError reports a malformed field on add/set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed read or write of a backing file.
// The on-disk file is left in its last consistent state.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
