package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"ytproxy/pkg/httputil"
)

type Cause int

const (
	CauseOther Cause = iota
	CauseQuotaExceeded
	CauseForbidden
)

func (c Cause) String() string {
	switch c {
	case CauseQuotaExceeded:
		return "quotaExceeded"
	case CauseForbidden:
		return "forbidden"
	default:
		return "other"
	}
}

const reasonQuotaExceeded = "quotaExceeded"

// Error is a classified failure of a YouTube call.
type Error struct {
	Op        string
	Cause     Cause
	Code      int
	Reason    string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (%s, status %d, reason %q): %v", e.Op, e.Cause, e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Cause, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps the platform's {error:{code, errors:[{reason}]}} payload onto
// a Cause. Only 403 responses are split into quota and permission failures.
func classify(op string, err error) *Error {
	e := &Error{Op: op, Cause: CauseOther, Err: err}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		e.Transient = httputil.IsTransientError(err)
		return e
	}

	e.Code = apiErr.Code
	if len(apiErr.Errors) > 0 {
		e.Reason = apiErr.Errors[0].Reason
	}
	e.Transient = httputil.IsTransientStatus(apiErr.Code)

	if apiErr.Code == http.StatusForbidden {
		if e.Reason == reasonQuotaExceeded {
			e.Cause = CauseQuotaExceeded
		} else {
			e.Cause = CauseForbidden
		}
	}
	return e
}
