// Package apperr carries the service error taxonomy as codes on a structured error.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. Handlers map them to HTTP statuses in pkg/response.
const (
	EInternal              = "internal"
	EUnauthenticated       = "unauthenticated"
	EConfigurationMissing  = "configuration missing"
	EInvalid               = "invalid"
	ENotFound              = "not found"
	EConflict              = "conflict"
	EForbidden             = "forbidden"
	EBestEffortFailure     = "best effort failure"
	EReconciliationFailure = "reconciliation failure"
)

// Error is a coded error with an optional operation name and cause.
//
// Code is for automated handling, Msg is for the caller, Op and Err chain
// errors into a logical trace:
//
//	&apperr.Error{Code: apperr.ENotFound, Op: "subaccounts.GetByID", Msg: "sub-account not found"}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// New returns an error with the given code and message.
func New(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with a format string.
func Newf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and operation. A nil err returns nil.
func Wrap(err error, code, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("<" + e.Code + ">")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the first code found in err's chain, EInternal for
// uncoded errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return EInternal
}

// ErrorMessage returns the first human-readable message in err's chain.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return "an internal error has occurred"
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return ErrorCode(err) == code
}
