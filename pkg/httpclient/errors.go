package httpclient

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyURL     = errors.New("request URL is empty")
	ErrNoAttempts   = errors.New("retry policy allows no attempts")
	ErrNilTransport = errors.New("http transport is nil")
)

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
