// Package apperr defines the sentinel errors shared across notedex packages.
package apperr

import "errors"

// Document errors. Each one is fatal for the note that produced it and
// never for the batch it belongs to.
var (
	ErrParse         = errors.New("no metadata found")
	ErrDateParse     = errors.New("unparsable date")
	ErrTagFormat     = errors.New("expected string or list of strings")
	ErrSerialization = errors.New("serialization failed")
)

// Collaborator errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("search backend unavailable")
	ErrRejected    = errors.New("rejected by search backend")
)
