package stream

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ContentLength returns the size of the stream in bytes. If the size was not
// supplied at construction, a HEAD request resolves it once; the resolved
// value is cached on the descriptor. Concurrent callers may each issue the
// HEAD request, but 0 -> n is the only write ever performed, so all of them
// converge on one cached value.
func (s *Stream) ContentLength(ctx context.Context) (uint64, error) {
	if cl := s.contentLength.Load(); cl != 0 {
		return cl, nil
	}

	header, err := s.head(ctx, s.url.String())
	if err != nil {
		return 0, err
	}
	raw := header.Get("Content-Length")
	if raw == "" {
		return 0, &UnexpectedResponseError{Reason: "the response did not contain a content-length header"}
	}
	cl, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || cl == 0 {
		return 0, &UnexpectedResponseError{Reason: "the response did not contain a valid content-length header"}
	}

	log.Trace().Str("op", "stream/length").Str("id", s.id).Msgf("content length is %d", cl)
	s.contentLength.CompareAndSwap(0, cl)
	return s.contentLength.Load(), nil
}
