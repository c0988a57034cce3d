package pdk

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocFailed is returned when the host returns offset 0 from alloc.
	ErrAllocFailed = errors.New("pdk: host allocation failed")

	// ErrMemoryReleased is returned by reads and writes on a freed or moved Memory.
	ErrMemoryReleased = errors.New("pdk: memory already released")
)

// HTTPError reports a request the host refused or could not perform.
// Code is the non-zero status returned by http_request.
type HTTPError struct {
	Method string
	URL    string
	Code   int32
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http request %s %s failed with host status %d", e.Method, e.URL, e.Code)
}
