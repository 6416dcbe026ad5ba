package stream_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubegrab/tubegrab/internal/stream"
)

// requestLog records the sq parameter of every GET in arrival order; whole
// file requests are recorded as "-".
type requestLog struct {
	mu       sync.Mutex
	requests []string
}

func (l *requestLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sq := r.URL.Query().Get("sq")
	if sq == "" {
		sq = "-"
	}
	l.requests = append(l.requests, sq)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.requests...)
}

func newStream(t *testing.T, url string) *stream.Stream {
	t.Helper()
	s, err := stream.New(url, "vid123", 0, nil)
	require.NoError(t, err)
	return s
}

func Test_DownloadTo_WholeFile(t *testing.T) {
	body := strings.Repeat("tubegrab-test-payload ", 1024)
	var rlog requestLog
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rlog.record(r)
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadTo(context.Background(), path)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(written))
	assert.Equal(t, []string{"-"}, rlog.all())
}

func Test_DownloadTo_NotFoundTriggersSequencedFallback(t *testing.T) {
	segments := []string{"segment-zero|", "segment-one|", "segment-two|"}
	var rlog requestLog
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rlog.record(r)
		sq := r.URL.Query().Get("sq")
		if sq == "" {
			http.NotFound(w, r)
			return
		}
		if sq == "0" {
			w.Header().Set("Segment-Count", "3")
		}
		idx := int(sq[0] - '0')
		fmt.Fprint(w, segments[idx])
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadTo(context.Background(), path)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(segments, ""), string(written))
	assert.Equal(t, []string{"-", "0", "1", "2"}, rlog.all())
}

func Test_DownloadTo_SequencedFallbackKeepsBaseQuery(t *testing.T) {
	var rlog requestLog
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rlog.record(r)
		if r.URL.Query().Get("sig") != "abc123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		sq := r.URL.Query().Get("sq")
		if sq == "" {
			http.NotFound(w, r)
			return
		}
		if sq == "0" {
			w.Header().Set("Segment-Count", "2")
		}
		fmt.Fprintf(w, "seg%s", sq)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL+"/?sig=abc123").DownloadTo(context.Background(), path)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "seg0seg1", string(written))
	assert.Equal(t, []string{"-", "0", "1"}, rlog.all())
}

func Test_DownloadTo_ServerErrorNoFallback(t *testing.T) {
	var rlog requestLog
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rlog.record(r)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadTo(context.Background(), path)
	require.Error(t, err)

	var reqErr *stream.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Equal(t, []string{"-"}, rlog.all())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "partial file must be deleted")
}

func Test_DownloadTo_MissingSegmentCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sq") == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "segment without header")
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadTo(context.Background(), path)
	require.Error(t, err)

	var respErr *stream.UnexpectedResponseError
	assert.ErrorAs(t, err, &respErr)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "partial file must be deleted")
}

func Test_DownloadToCallback_ProgressAndComplete(t *testing.T) {
	body := strings.Repeat("x", 1<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	var mu sync.Mutex
	var progress []uint64
	completeCh := make(chan string, 2)
	cb := &stream.Callback{
		OnProgress: func(downloaded uint64) {
			mu.Lock()
			progress = append(progress, downloaded)
			mu.Unlock()
		},
		OnComplete: func(path string) {
			completeCh <- path
		},
	}

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadToCallback(context.Background(), path, cb)
	require.NoError(t, err)

	select {
	case completed := <-completeCh:
		assert.Equal(t, path, completed)
	case <-time.After(5 * time.Second):
		t.Fatal("OnComplete was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress must be non-decreasing")
	}
	if len(progress) > 0 {
		assert.LessOrEqual(t, progress[len(progress)-1], uint64(len(body)))
	}

	select {
	case extra := <-completeCh:
		t.Fatalf("OnComplete invoked more than once (second value %q)", extra)
	default:
	}
}

func Test_DownloadToCallback_CompleteEmptyOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	completeCh := make(chan string, 1)
	cb := &stream.Callback{
		OnComplete: func(path string) {
			completeCh <- path
		},
	}

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := newStream(t, server.URL).DownloadToCallback(context.Background(), path, cb)
	require.Error(t, err)

	select {
	case completed := <-completeCh:
		assert.Empty(t, completed, "failed download must complete with no path")
	case <-time.After(5 * time.Second):
		t.Fatal("OnComplete was never invoked")
	}
}

func Test_DownloadToDir_DefaultFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	defer server.Close()

	dir := t.TempDir()
	path, err := newStream(t, server.URL).DownloadToDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vid123.mp4"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(written))
}

func Test_DownloadTo_InvalidOutputDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	defer server.Close()

	err := newStream(t, server.URL).DownloadTo(context.Background(), filepath.Join(t.TempDir(), "missing", "out.mp4"))
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*stream.RequestError)), "filesystem errors are not request errors")
}
