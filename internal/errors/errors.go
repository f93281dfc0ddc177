// Package errors defines the typed error taxonomy of spec.md §7:
// IoError, GitError, ParseError, ConfigError, BudgetError and
// EmptyResultError. Per-file IoError/ParseError are swallowed at the
// Indexer boundary after being logged; GitError degrades git signals
// to empty; ConfigError is fatal at startup; BudgetError and
// EmptyResultError are returned to the caller as part of an empty
// pack, never thrown.
package errors

import (
	"fmt"
	"time"
)

// Code is the stable short code attached to every fatal diagnostic.
type Code string

const (
	CodeIO       Code = "E_IO"
	CodeGit      Code = "E_GIT"
	CodeParse    Code = "E_PARSE"
	CodeConfig   Code = "E_CONFIG"
	CodeBudget   Code = "E_BUDGET"
	CodeEmpty    Code = "E_EMPTY"
	CodeInternal Code = "E_INTERNAL"
)

// Error is the common shape of every typed error in this package.
type Error struct {
	Code       Code
	Op         string // operation being attempted, e.g. "scan", "index_file"
	Path       string // optional: file or config path
	Underlying error
	Timestamp  time.Time
	Recoverable bool
}

// Error implements the error interface, rendering the stable
// single-line diagnostic fatal errors require.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Code, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Underlying)
}

// Unwrap supports errors.Is / errors.As against the underlying cause.
func (e *Error) Unwrap() error { return e.Underlying }

func newErr(code Code, op, path string, err error, recoverable bool) *Error {
	return &Error{
		Code:        code,
		Op:          op,
		Path:        path,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: recoverable,
	}
}

// IO wraps a file-read/write or database-access failure. Recoverable:
// callers should log and skip the affected file, never abort a batch.
func IO(op, path string, err error) *Error { return newErr(CodeIO, op, path, err, true) }

// Git wraps a GitProbe unavailability or subprocess failure. Always
// recoverable: the caller degrades the signal to empty.
func Git(op string, err error) *Error { return newErr(CodeGit, op, "", err, true) }

// Parse wraps a symbol/import/stacktrace/diff parse failure.
// Recoverable: the extractor yields whatever it already has.
func Parse(op, path string, err error) *Error { return newErr(CodeParse, op, path, err, true) }

// Config wraps a malformed config or ignore file. Fatal at startup.
func Config(op, path string, err error) *Error { return newErr(CodeConfig, op, path, err, false) }

// Budget signals that no files fit the token budget. Not fatal: the
// caller returns an empty pack carrying this as its Reason.
func Budget(op string, err error) *Error { return newErr(CodeBudget, op, "", err, true) }

// Empty signals that zero candidates were discovered for a task. Not
// fatal: the caller returns an empty pack carrying this as its
// Reason.
func Empty(op string, err error) *Error { return newErr(CodeEmpty, op, "", err, true) }

// Internal wraps an error that does not fit any other kind.
func Internal(op string, err error) *Error { return newErr(CodeInternal, op, "", err, false) }

// IsRecoverable reports whether err carries a recoverable *Error.
func IsRecoverable(err error) bool {
	var e *Error
	if ok := As(err, &e); ok {
		return e.Recoverable
	}
	return false
}

// As walks err's Unwrap chain for a *Error, kept here so callers only
// need to import this package for the common case.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
