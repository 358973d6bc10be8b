package content

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMissingType is returned when a single-page payload carries no content
// type discriminator.
var ErrMissingType = errors.New("missing type")

// TransportError reports a network failure, timeout or non-200 response from
// an upstream API.
type TransportError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("fetch %s: bad status code %d", e.Path, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the request may succeed.
func (e *TransportError) Temporary() bool {
	if e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// UnknownTypeError is returned for a discriminator outside the supported set.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown content type %q", e.Type)
}

// UpstreamMessageError carries an error message the CMS put in the body.
type UpstreamMessageError struct {
	Message string
}

func (e *UpstreamMessageError) Error() string {
	return "upstream error: " + e.Message
}
