package sdwload

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := svc.Load(ctx, req)
//	if errors.Is(err, sdwload.ErrTypeCoercion) {
//	    // a CSV field did not match its column type
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUsage indicates the command line was used incorrectly.
	ErrUsage = errors.New("usage error")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrUnsupportedDriver indicates the requested database driver is not supported.
	ErrUnsupportedDriver = errors.New("unsupported driver")

	// ErrUnknownDataset indicates a dataset name is not registered.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrSourceNotFound indicates a source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrSourceInvalid indicates a source file could not be parsed.
	ErrSourceInvalid = errors.New("source file invalid")

	// ErrTypeCoercion indicates a raw field could not be coerced to its column type.
	ErrTypeCoercion = errors.New("type coercion failed")

	// ErrDuplicateKey indicates an insert conflicted with a unique key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConstraint indicates an insert violated a database constraint.
	ErrConstraint = errors.New("constraint violation")

	// ErrCommitFailed indicates the database rejected the commit.
	ErrCommitFailed = errors.New("commit failed")
)

// FileNotFoundError reports a missing source file.
// It matches both ErrSourceNotFound and fs.ErrNotExist.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("source file %q not found", e.Path)
}

func (e *FileNotFoundError) Unwrap() []error {
	errs := []error{ErrSourceNotFound, fs.ErrNotExist}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ParseError reports a malformed source file. Line is 1-based and
// counts the header line; zero means the position is unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrSourceInvalid, e.Err}
}

// TypeCoercionError names the field and raw value that failed coercion.
type TypeCoercionError struct {
	Field string
	Value string
	Type  ColumnType
	Err   error
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %q to %s: %v",
		e.Field, preview(e.Value), e.Type, e.Err)
}

func (e *TypeCoercionError) Unwrap() []error {
	return []error{ErrTypeCoercion, e.Err}
}

// DuplicateKeyError reports the first row of a batch that conflicted
// with a unique key. Row is the 1-based data row within the batch.
type DuplicateKeyError struct {
	Table      string
	Row        int64
	Constraint string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("duplicate key in %s at row %d (constraint %s): %v", e.Table, e.Row, e.Constraint, e.Err)
	}
	return fmt.Sprintf("duplicate key in %s at row %d: %v", e.Table, e.Row, e.Err)
}

func (e *DuplicateKeyError) Unwrap() []error {
	return []error{ErrDuplicateKey, ErrConstraint, e.Err}
}

// ConstraintError reports any other constraint violation raised by an insert.
type ConstraintError struct {
	Table      string
	Row        int64
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint %s violated in %s at row %d: %v", e.Constraint, e.Table, e.Row, e.Err)
	}
	return fmt.Sprintf("constraint violated in %s at row %d: %v", e.Table, e.Row, e.Err)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{ErrConstraint, e.Err}
}

// CommitError reports a commit rejected by the database.
type CommitError struct {
	Tables []string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of %s failed: %v", strings.Join(e.Tables, ", "), e.Err)
}

func (e *CommitError) Unwrap() []error {
	return []error{ErrCommitFailed, e.Err}
}

func preview(s string) string {
	if len(s) <= MaxValuePreviewLength {
		return s
	}
	cut := MaxValuePreviewLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedAuthMethod),
		errors.Is(err, ErrUnsupportedDriver),
		errors.Is(err, ErrUnknownDataset):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrSourceInvalid):
		return ExitSourceError
	case errors.Is(err, ErrTypeCoercion):
		return ExitCoercionError
	case errors.Is(err, ErrConstraint):
		return ExitConstraintError
	case errors.Is(err, ErrCommitFailed):
		return ExitCommitError
	}

	// cobra reports usage mistakes as plain, unwrapped errors whose text
	// starts with one of these; anything a command returns is wrapped
	// with its own prefix.
	errStr := err.Error()
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
	} {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
