package apierr

import "fmt"

// Codes carried alongside HTTP statuses so handlers and clients can branch
// without string-matching messages.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeConfiguration   = "configuration_error"
	CodeQueryExecution  = "query_execution_error"
	CodeNotFound        = "not_found"
	CodeValidation      = "validation_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthenticated(err error) *Error {
	return New(401, CodeUnauthenticated, err)
}

func Forbidden(err error) *Error {
	return New(403, CodeForbidden, err)
}

func NotFound(err error) *Error {
	return New(404, CodeNotFound, err)
}

func Validation(err error) *Error {
	return New(400, CodeValidation, err)
}
