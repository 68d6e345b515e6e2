package core

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrInvalidCredentials = errors.New("incorrect username or password")
var ErrLoginTokenMissing = errors.New("could not find authenticity token on the login page")

// HTTPError is returned when the archive answered with a status the
// transport does not accept, or could not be reached at all (Status 0).
type HTTPError struct {
	Status  int
	Reason  string
	Message string
	URL     string
	Err     error
}

func newHTTPError(res *Response, message string) *HTTPError {
	out := &HTTPError{
		Status:  res.Status,
		Reason:  res.Reason,
		Message: message,
	}
	if res.URL != nil {
		out.URL = res.URL.String()
	}
	return out
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	msg := fmt.Sprintf("%d %s", e.Status, e.Reason)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the archive said the page doesn't exist.
func (e *HTTPError) NotFound() bool {
	return e.Status == http.StatusNotFound
}
