package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when an operation needs a bearer token and
	// none was supplied, or the login response carried none.
	ErrMissingToken = errors.New("directory: missing access token")

	// ErrMissingAccount is returned when the user record has no primary account.
	ErrMissingAccount = errors.New("directory: missing account id")
)

// maxBodyInError caps how much of a failed response body is kept.
const maxBodyInError = 512

// OperationError describes a failed directory call. StatusCode is zero when
// the request never produced a response.
type OperationError struct {
	Op         string
	Target     string
	StatusCode int
	Body       string
	Err        error
}

func (e *OperationError) Error() string {
	var s string
	switch {
	case e.StatusCode != 0:
		s = fmt.Sprintf("%s %s: status %d", e.Op, e.Target, e.StatusCode)
		if e.Body != "" {
			s += ": " + e.Body
		}
	default:
		s = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an OperationError carrying status code.
func IsStatus(err error, code int) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.StatusCode == code
	}
	return false
}

func truncateBody(b []byte) string {
	if len(b) > maxBodyInError {
		return string(b[:maxBodyInError]) + "..."
	}
	return string(b)
}
