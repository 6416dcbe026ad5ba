package stream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrProgressClosed is returned by the transfer loop when the progress
// consumer was torn down while the download was still running. This only
// happens when the caller cancels the surrounding context, so it aborts the
// transfer instead of being swallowed.
var ErrProgressClosed = errors.New("progress consumer closed before transfer finished")

// RequestError is a non-2xx response from the origin server.
type RequestError struct {
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NotFound reports whether the origin rejected the request with 404, the
// signal that the stream must be fetched segment by segment instead.
func (e *RequestError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// UnexpectedResponseError means the origin answered 2xx but the response is
// missing a header the protocol requires, or carries one we cannot parse.
type UnexpectedResponseError struct {
	Reason string
}

func (e *UnexpectedResponseError) Error() string {
	return "unexpected response: " + e.Reason
}
