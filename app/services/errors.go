// Package services is the dashboard's data-access layer. Every operation
// returns its data and an error; on failure the data is the neutral value
// (an empty, non-nil slice or a nil pointer) and the error is an *Error whose
// message can be shown to the user as is.
package services

import (
	"errors"
	"log"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// UnexpectedMessage is shown when an operation fails without a message.
const UnexpectedMessage = "an unexpected error occurred"

// Error is a failed operation.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsValidation reports whether err was a rejected input.
func IsValidation(err error) bool {
	return models.IsValidation(err)
}

// fail normalizes err into an *Error carrying the backend's own message.
func fail(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	msg := err.Error()
	var be *backend.Error
	if errors.As(err, &be) {
		msg = be.Error()
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}
	if msg == "" {
		msg = UnexpectedMessage
	}
	return &Error{Op: op, Message: msg, Err: err}
}

// recoverTo turns a panic in op into a generic *Error stored in err. It must
// be deferred directly.
func recoverTo(op string, err *error) {
	if r := recover(); r != nil {
		log.Printf("services: %s: recovered panic: %v", op, r)
		*err = &Error{Op: op, Message: UnexpectedMessage}
	}
}
