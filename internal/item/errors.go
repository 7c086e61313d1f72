package item

import (
	"errors"
	"net/http"

	"RestQueryAPI/internal/db"
)

const (
	MsgNotFound       = "record not found"
	MsgInvalidFormat  = "invalid format"
	MsgAlreadyExists  = "record already exists"
	MsgCannotDelete   = "cannot be deleted"
	MsgSomethingWrong = "something went wrong"
)

// Error is a failure rendered to the client as {"success": false, "error": Message}.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(err error) *Error {
	return &Error{Status: http.StatusNotFound, Message: MsgNotFound, Err: err}
}

func invalidFormat(err error) *Error {
	return &Error{Status: http.StatusBadRequest, Message: MsgInvalidFormat, Err: err}
}

// writeError classifies a storage error of put/post.
func writeError(err error) *Error {
	switch {
	case errors.Is(err, db.ErrUniqueViolation):
		return &Error{Status: http.StatusInternalServerError, Message: MsgAlreadyExists, Err: err}
	case errors.Is(err, db.ErrNotFound):
		return notFound(err)
	}
	return &Error{Status: http.StatusInternalServerError, Message: MsgSomethingWrong, Err: err}
}

// AsError converts any error into an *Error, defaulting to 500.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Status: http.StatusInternalServerError, Message: MsgSomethingWrong, Err: err}
}
