package common

import (
	"errors"
	"net/http"

	"github.com/viamover/moverd/pkg/mover"
)

// MoverErrorBody writes the response for errors of the Mover API, false if err is not one
func MoverErrorBody(w http.ResponseWriter, err error) bool {
	var (
		netErr        *mover.InvalidNetworkForOperationError
		apiErr        *mover.APIError
		validationErr *mover.ValidationError
	)

	switch {
	case errors.As(err, &netErr):
		ErrorBody(w, http.StatusBadRequest, "INVALID_NETWORK", err)
	case errors.As(err, &apiErr):
		code := apiErr.ShortMessage
		if code == "" {
			code = "UPSTREAM"
		}
		ErrorBody(w, http.StatusBadGateway, code, err)
	case errors.As(err, &validationErr):
		ErrorBody(w, http.StatusBadGateway, "INVALID_RESPONSE", err)
	default:
		return false
	}

	return true
}
