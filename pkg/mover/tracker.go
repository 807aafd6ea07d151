package mover

import "errors"

// ErrorTracker receives captured errors. Calls never block or fail.
type ErrorTracker interface {
	CaptureException(err error)
	AddBreadcrumb(category, message string)
}

type nopTracker struct{}

func (nopTracker) CaptureException(error)        {}
func (nopTracker) AddBreadcrumb(string, string) {}

// NopTracker drops everything
var NopTracker ErrorTracker = nopTracker{}

// UserError is implemented by errors caused by the caller's input. They are
// tracked but not sent to the ops webhook.
type UserError interface {
	error
	UserError()
}

type userError string

func (e userError) Error() string { return string(e) }

func (userError) UserError() {}

// NewUserError returns a sentinel error caused by the caller's input
func NewUserError(message string) error {
	return userError(message)
}

func IsUserError(err error) bool {
	var u UserError
	return errors.As(err, &u)
}
