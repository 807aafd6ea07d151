package mover

import (
	"fmt"
)

// APIError is an error response of the Mover API
type APIError struct {
	StatusCode   int
	ShortMessage string
	Message      string
}

func (e *APIError) Error() string {
	if e.ShortMessage == "" {
		return fmt.Sprintf("mover api: %s (status %d)", e.Message, e.StatusCode)
	}

	return fmt.Sprintf("mover api: %s: %s (status %d)", e.ShortMessage, e.Message, e.StatusCode)
}

// InvalidNetworkForOperationError is returned when the operation is only
// available on another network
type InvalidNetworkForOperationError struct {
	Network   Network
	Supported Network
}

func (e *InvalidNetworkForOperationError) Error() string {
	return fmt.Sprintf("operation is not supported on %s, switch to %s", e.Network, e.Supported)
}

// ValidationError is returned when a response doesn't match any of the
// expected shapes. Payload carries the offending data.
type ValidationError struct {
	Message string
	Payload any
}

func (e *ValidationError) Error() string {
	return e.Message
}
