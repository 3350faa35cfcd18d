package catalog

import "errors"

var (
	// ErrNotFound indicates the requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a foreign key, check or linkage violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrSchemaUnsupported indicates the database lacks the series columns.
	ErrSchemaUnsupported = errors.New("schema does not support series")

	// ErrInvalidPosition indicates a negative playback position.
	ErrInvalidPosition = errors.New("invalid playback position")
)
