package errors

import (
	"errors"
	"fmt"
)

// Code classifies a failure so the CLI can render it and pick an exit status.
type Code int

const (
	CodeSuccess              Code = 0
	CodeInternal             Code = 1
	CodeInvalidInput         Code = 2
	CodeProviderMissing      Code = 10
	CodeUserRejected         Code = 11
	CodeRequestPending       Code = 12
	CodeNotInitialized       Code = 13
	CodeQuoteFailed          Code = 14
	CodeSwapFailed           Code = 15
	CodeUnsupportedOperation Code = 16
	CodeSuperseded           Code = 17
)

var codeNames = map[Code]string{
	CodeSuccess:              "success",
	CodeInternal:             "internal",
	CodeInvalidInput:         "invalid_input",
	CodeProviderMissing:      "provider_missing",
	CodeUserRejected:         "user_rejected",
	CodeRequestPending:       "request_pending",
	CodeNotInitialized:       "not_initialized",
	CodeQuoteFailed:          "quote_failed",
	CodeSwapFailed:           "swap_failed",
	CodeUnsupportedOperation: "unsupported_operation",
	CodeSuperseded:           "superseded",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// MarshalText renders the code by name in JSON output.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Error is a classified error carrying an optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As returns the outermost classified error in the chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether any classified error in the chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var target *Error
		if !errors.As(err, &target) {
			return false
		}
		if target.Code == code {
			return true
		}
		err = target.Cause
	}
	return false
}

// CodeOf returns the code of the outermost classified error, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

func ExitCode(err error) int {
	return int(CodeOf(err))
}
