package vellum

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for records that do not exist and for
	// private pastes whose existence must not be disclosed.
	ErrNotFound = errors.New("record not found")

	// ErrNotAllowed is returned when a paste is visible but the
	// requested operation is denied.
	ErrNotAllowed = errors.New("not allowed")

	ErrInvalidID = errors.New("invalid identifier")
)

// Validation error codes. These are stable: API clients match on them.
const (
	CodeNoFiles             = "no_files"
	CodeAnonymousPrivate    = "anonymous_private"
	CodeDuplicateFileNames  = "duplicate_file_names"
	CodeNameTooLong         = "name_too_long"
	CodeDescriptionTooLong  = "description_too_long"
	CodeFileNameTooLong     = "file_name_too_long"
	CodeInvalidFileName     = "invalid_file_name"
	CodeEmptyFileContent    = "empty_file_content"
	CodeMissingFile         = "missing_file"
	CodeNewFileNeedsContent = "new_file_needs_content"
	CodeEmptyPatch          = "empty_patch"
)

// FieldError is a user-correctable validation failure. It is always
// detected before any mutation takes place.
type FieldError struct {
	Code    string
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CorruptError reports a data-integrity anomaly (e.g. a file recorded as
// text whose stored bytes are no longer valid UTF-8). It is reportable
// rather than fatal; callers may degrade to binary display.
type CorruptError struct {
	Detail string
}

func (e *CorruptError) Error() string {
	return "data corrupt: " + e.Detail
}

// AccessDenial is the result of a failed access check. Status is the
// suggested transport status: private pastes deny with 404 so that their
// existence cannot be probed, everything else with 403.
type AccessDenial struct {
	Status int
	Err    error
}

func (d *AccessDenial) Error() string {
	return d.Err.Error()
}

func (d *AccessDenial) Unwrap() error {
	return d.Err
}
