package subsidized

import (
	"errors"
	"fmt"

	"github.com/viamover/moverd/pkg/mover"
)

var (
	ErrOnlyMoveBurnable = mover.NewUserError("only MOVE can be burned")
	ErrMalformedAction  = errors.New("malformed action string")
	ErrStaleAction      = errors.New("action string is too old")
	ErrInvalidQuote     = errors.New("quote has no buy amount")
)

// SigningError is returned when the wallet doesn't sign the action string
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("could not sign action: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
