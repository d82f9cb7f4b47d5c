// Package apperr holds the sentinel errors shared by the note service and its surfaces.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotConfirmed  = errors.New("confirmation required")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrInProgress    = errors.New("action already in progress")
	ErrEmptyContent  = errors.New("content is empty")
	ErrInvalidTheme  = errors.New("invalid theme")
)
