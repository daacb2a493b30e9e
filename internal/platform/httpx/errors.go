package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the domain and adapter layers.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrValidation  = errors.New("validation failed")
	ErrTimeout     = errors.New("upstream timeout")
	ErrUnavailable = errors.New("upstream unavailable")
)

// UpstreamError carries a non-2xx status and body returned by the remote
// backend. The status is forwarded to the caller as-is.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Duplicate keys answer 400 rather than 409: the service has always
// reported duplicates as bad requests and clients depend on it.
func RespondError(w http.ResponseWriter, err error) {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusBadRequest, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrTimeout):
		Problem(w, http.StatusGatewayTimeout, "Upstream Timeout", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Upstream Unavailable", err.Error())
	case errors.As(err, &upstream):
		Problem(w, upstream.Status, "Upstream Error", upstream.Body)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
