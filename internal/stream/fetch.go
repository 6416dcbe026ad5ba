package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// get issues a GET and hands back the response with its body still open.
// Non-2xx statuses are surfaced as *RequestError with the body drained.
func (s *Stream) get(ctx context.Context, url string) (*http.Response, error) {
	log.Trace().Str("op", "stream/fetch").Msgf("GET %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing GET request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &RequestError{Status: resp.StatusCode}
	}
	return resp, nil
}

// head issues a HEAD with the same status contract as get, returning only
// the response headers.
func (s *Stream) head(ctx context.Context, url string) (http.Header, error) {
	log.Trace().Str("op", "stream/fetch").Msgf("HEAD %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HEAD request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing HEAD request: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{Status: resp.StatusCode}
	}
	return resp.Header, nil
}
