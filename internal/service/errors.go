package service

import (
	"errors"
	"fmt"
	"net/http"
)

// RejectedError is returned when the collaborator answers with a non-success
// status. Message is the collaborator's error string, shown to the user verbatim.
type RejectedError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the rejection was an authentication failure.
func (e *RejectedError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Rejection returns the collaborator's error message if err is a rejection.
func Rejection(err error) (string, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Message, true
	}
	return "", false
}

// ErrNoSession is returned when an operation needs a session and none exists.
var ErrNoSession = errors.New("not logged in")
