package stream

import (
	"context"
	"sync/atomic"

	"github.com/tubegrab/tubegrab/internal/utils"
)

// Callback carries the optional progress hooks for one download. OnProgress
// receives non-decreasing cumulative byte counts; under backpressure
// intermediate values are skipped, never reordered. OnComplete fires exactly
// once, after all progress deliveries, with the output path on success or ""
// on failure. Both hooks run on a background goroutine so a slow observer
// can never stall the transfer.
type Callback struct {
	OnProgress func(downloaded uint64)
	OnComplete func(path string)
}

// progressChannel is the bounded, drop-on-full delivery path between the
// transfer loop and the consumer goroutine driving the user's hooks.
type progressChannel struct {
	events  chan uint64
	final   chan string
	closed  atomic.Bool
	stopped chan struct{}
}

func newProgressChannel() *progressChannel {
	return &progressChannel{
		events:  make(chan uint64, utils.ProgressChannelSize),
		final:   make(chan string, 1),
		stopped: make(chan struct{}),
	}
}

// start launches the consumer. It runs until a terminal result arrives or
// the context is cancelled; in the latter case the channel is marked closed
// so the transfer loop aborts on its next trySend.
func (pc *progressChannel) start(ctx context.Context, cb *Callback) {
	go func() {
		defer close(pc.stopped)
		for {
			// Terminal results win over any backlog of progress events;
			// whatever is still queued at that point is discarded.
			select {
			case path := <-pc.final:
				if cb.OnComplete != nil {
					cb.OnComplete(path)
				}
				return
			default:
			}
			select {
			case path := <-pc.final:
				if cb.OnComplete != nil {
					cb.OnComplete(path)
				}
				return
			case <-ctx.Done():
				pc.closed.Store(true)
				return
			case n := <-pc.events:
				if cb.OnProgress != nil {
					cb.OnProgress(n)
				}
			}
		}
	}()
}

// trySend never blocks: a full channel drops the event, a torn-down consumer
// is a hard error for the caller.
func (pc *progressChannel) trySend(downloaded uint64) error {
	if pc.closed.Load() {
		return ErrProgressClosed
	}
	select {
	case pc.events <- downloaded:
	default:
	}
	return nil
}

// stop delivers the terminal result and shuts the consumer down without
// draining queued progress events. path is "" when the download failed.
func (pc *progressChannel) stop(path string) {
	pc.closed.Store(true)
	pc.final <- path
}
