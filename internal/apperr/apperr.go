// Package apperr defines the error taxonomy surfaced by a migration run.
//
// Every error is fatal to the run. The code identifies which stage failed and
// the remaining fields carry enough context to diagnose the failure without
// re-running: the migration file involved and the raw result payload or
// transport detail.
package apperr

import "fmt"

// Code is the machine-readable class of a run error.
type Code string

const (
	CodeDiscovery          Code = "DISCOVERY"
	CodeDuplicateID        Code = "DUPLICATE_ID"
	CodeLedgerProvision    Code = "LEDGER_PROVISION"
	CodeLedgerRead         Code = "LEDGER_READ"
	CodeMigrationExecution Code = "MIGRATION_EXECUTION"
	CodeConfig             Code = "CONFIG"
)

// Error is a run error with structured context.
type Error struct {
	Code    Code   // stage that failed
	Message string // human readable summary
	File    string // migration file name, if any
	Detail  string // full result payload or transport detail
	Cause   error  // wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = fmt.Sprintf("%s %s", msg, e.File)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is matching by code.
var (
	ErrDiscovery          = &Error{Code: CodeDiscovery}
	ErrDuplicateID        = &Error{Code: CodeDuplicateID}
	ErrLedgerProvision    = &Error{Code: CodeLedgerProvision}
	ErrLedgerRead         = &Error{Code: CodeLedgerRead}
	ErrMigrationExecution = &Error{Code: CodeMigrationExecution}
	ErrConfig             = &Error{Code: CodeConfig}
)

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Migration creates a MIGRATION_EXECUTION error for the named file.
// Either detail or cause may be empty.
func Migration(file, detail string, cause error) *Error {
	return &Error{
		Code:    CodeMigrationExecution,
		Message: "failed executing migration",
		File:    file,
		Detail:  detail,
		Cause:   cause,
	}
}
