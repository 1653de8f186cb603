package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// IsTransient reports whether a failed call is likely to succeed if the
// whole operation is triggered again soon. It never retries anything itself.
func IsTransient(resp *http.Response, err error) bool {
	if err != nil {
		return IsTransientError(err)
	}
	if resp == nil {
		return false
	}
	return IsTransientStatus(resp.StatusCode)
}

func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func IsTransientStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code < 600
}
