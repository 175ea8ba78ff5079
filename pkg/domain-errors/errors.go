// Package domainerrors defines the typed error vocabulary shared by services,
// transports and the CLI. Services return these so callers can branch on a
// stable Code instead of matching message text.
//
// Import it as:
//
//	dErrors "reserveguard/pkg/domain-errors"
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation: malformed input rejected before any evaluation.
	CodeValidation Code = "validation_error"
	// CodeBadRequest: a request that cannot be decoded at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound: unknown participant or out-of-range appeal index.
	CodeNotFound Code = "not_found"
	// CodeConflict: operation not allowed in the entity's current state.
	CodeConflict Code = "conflict"
	// CodeUnauthorized: missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: valid credentials without the required role.
	CodeForbidden Code = "forbidden"
	// CodeInvariantViolation: a constructor refused to build an invalid value.
	CodeInvariantViolation Code = "invariant_violation"
	// CodePersistence: the load/save collaborator failed.
	CodePersistence Code = "persistence_error"
	// CodeProver: the verifiable-computation engine failed or disagreed.
	CodeProver Code = "prover_error"
	// CodeInternal: anything else.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a Code, a caller-safe message and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a domain error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. Wrapping nil
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Is reports whether the outermost domain error in err's chain has code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HasCode reports whether any domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost domain code in err's chain, or CodeInternal
// for errors that never went through this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
