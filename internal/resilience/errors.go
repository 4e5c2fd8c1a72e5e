package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry. StatusCode is the HTTP
// status that caused it, or 0 for network failures.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"i/o timeout",
	"server closed idle connection",
	"temporary failure in name resolution",
}

// noRouteMessages are routing answers about the points themselves. Asking
// again cannot change them, whatever status they arrive with.
var noRouteMessages = []string{
	"cannot find point",
	"connection between locations not found",
	"is out of bounds",
	"cannot find a path",
}

// IsNoRoute reports whether a routing server message says the requested
// points cannot be snapped or connected.
func IsNoRoute(message string) bool {
	msg := strings.ToLower(message)
	for _, p := range noRouteMessages {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is a TransientError, a network timeout, or
// a dropped or refused connection. Errors carrying a no-route message are
// never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return !IsNoRoute(te.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if IsNoRoute(msg) {
		return false
	}
	for _, p := range transientMessages {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether a response status is worth retrying.
// 400 and 404 are what a router answers for unroutable points and are final.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
