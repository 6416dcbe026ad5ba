package stream

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync/atomic"

	"github.com/tubegrab/tubegrab/internal/utils"
)

// Stream is a single fetchable media resource behind an already signed URL.
// It is immutable after construction and safe to share across concurrent
// download attempts; only the content length cache is ever written, and that
// write is idempotent.
type Stream struct {
	url           *url.URL
	id            string
	client        utils.HTTPDoer
	contentLength atomic.Uint64
}

// New builds a stream descriptor. lengthHint may be 0 when the size is not
// known upstream; it is then resolved lazily via a HEAD request.
func New(rawURL, id string, lengthHint uint64, client utils.HTTPDoer) (*Stream, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing stream URL: %v", err)
	}
	if client == nil {
		client = utils.NewGrabHTTPClient(utils.HTTPClientConfig{})
	}
	s := &Stream{
		url:    parsed,
		id:     id,
		client: client,
	}
	s.contentLength.Store(lengthHint)
	return s, nil
}

// ID returns the identifier the stream was constructed with. It is only used
// to derive default output filenames.
func (s *Stream) ID() string {
	return s.id
}

// URL returns the stream's fetch URL.
func (s *Stream) URL() string {
	return s.url.String()
}

func (s *Stream) defaultFilename() string {
	return s.id + ".mp4"
}

// Download fetches the stream to <id>.mp4 in the current working directory.
func (s *Stream) Download(ctx context.Context) (string, error) {
	return s.DownloadCallback(ctx, nil)
}

// DownloadCallback is Download with a progress observer attached.
func (s *Stream) DownloadCallback(ctx context.Context, cb *Callback) (string, error) {
	path := s.defaultFilename()
	if err := s.internalDownloadTo(ctx, path, cb); err != nil {
		return "", err
	}
	return path, nil
}

// DownloadToDir fetches the stream to <id>.mp4 inside dir.
func (s *Stream) DownloadToDir(ctx context.Context, dir string) (string, error) {
	return s.DownloadToDirCallback(ctx, dir, nil)
}

// DownloadToDirCallback is DownloadToDir with a progress observer attached.
func (s *Stream) DownloadToDirCallback(ctx context.Context, dir string, cb *Callback) (string, error) {
	path := filepath.Join(dir, s.defaultFilename())
	if err := s.internalDownloadTo(ctx, path, cb); err != nil {
		return "", err
	}
	return path, nil
}

// DownloadTo fetches the stream to the given file path.
func (s *Stream) DownloadTo(ctx context.Context, path string) error {
	return s.internalDownloadTo(ctx, path, nil)
}

// DownloadToCallback is DownloadTo with a progress observer attached.
func (s *Stream) DownloadToCallback(ctx context.Context, path string, cb *Callback) error {
	return s.internalDownloadTo(ctx, path, cb)
}
