package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRejected matches any non-success answer from the remote authority.
	ErrRejected = errors.New("remote rejected request")

	// ErrTransport matches any failure to complete a call.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed matches responses that could not be decoded.
	ErrMalformed = errors.New("malformed response")

	// ErrAuth matches a backend that cannot be used until the user logs in
	// or fixes credentials.
	ErrAuth = errors.New("not authenticated")
)

// RemoteError is a non-2xx response.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is reports ErrRejected so callers can match without knowing the status.
func (e *RemoteError) Is(target error) bool { return target == ErrRejected }

// TransportError is a call that never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Kind buckets an error for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
