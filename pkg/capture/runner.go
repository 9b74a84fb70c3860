package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/overlay"
	"github.com/teslashibe/go-overlay/pkg/processor"
	"golang.org/x/time/rate"
)

// maxReadFailures is how many consecutive device read failures the
// runner tolerates before giving up.
const maxReadFailures = 30

// detachedPoll is how often Run checks for a new source while none is set.
const detachedPoll = 20 * time.Millisecond

// Stats counts frames seen by a Runner.
type Stats struct {
	Read         int64 `json:"read"`
	ReadErrors   int64 `json:"read_errors"`
	DetectErrors int64 `json:"detect_errors"`
}

// Runner pulls frames from a Source at a bounded rate and hands each to
// a processor together with the target overlay. Calls to the processor
// are sequential.
type Runner struct {
	proc processor.VisionImageProcessor
	ov   *overlay.Overlay

	limiter *rate.Limiter

	mu  sync.Mutex
	src Source

	read         atomic.Int64
	readErrors   atomic.Int64
	detectErrors atomic.Int64

	// OnFrame, when set, is called after every processed frame.
	OnFrame func(id string, meta frame.Metadata, err error)
}

// NewRunner creates a runner delivering at most fps frames per second.
func NewRunner(src Source, proc processor.VisionImageProcessor, ov *overlay.Overlay, fps int) *Runner {
	return &Runner{
		proc:    proc,
		ov:      ov,
		src:     src,
		limiter: rate.NewLimiter(limitFor(fps), 1),
	}
}

func limitFor(fps int) rate.Limit {
	if fps <= 0 {
		return rate.Inf
	}
	return rate.Limit(fps)
}

// SetRate changes the frame rate limit.
func (r *Runner) SetRate(fps int) {
	r.limiter.SetLimit(limitFor(fps))
}

// SetSource swaps the frame source, e.g. after a camera reconfiguration,
// and closes the previous one. A nil src detaches the current source;
// Run idles until a new one is set.
func (r *Runner) SetSource(src Source) {
	r.mu.Lock()
	old := r.src
	r.src = src
	r.mu.Unlock()

	if old != nil && old != src {
		if err := old.Close(); err != nil {
			log.Warn("close previous source", "error", err)
		}
	}
}

func (r *Runner) source() Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src
}

// Stats returns a snapshot of the frame counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Read:         r.read.Load(),
		ReadErrors:   r.readErrors.Load(),
		DetectErrors: r.detectErrors.Load(),
	}
}

// Run feeds frames until ctx is cancelled, a finite source is exhausted
// or the processor reports a programming error. Detection failures are
// logged and the next frame gets a fresh attempt. Run returns nil on
// end of stream and ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	failures := 0
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		src := r.source()
		if src == nil {
			// Detached during a reconfiguration.
			if err := sleepCtx(ctx, detachedPoll); err != nil {
				return err
			}
			continue
		}
		data, meta, err := src.Read(ctx)
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, ErrEndOfStream):
			log.Info("capture source exhausted", "frames", r.read.Load())
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrClosed) && src != r.source():
			// Swapped out mid-read.
			continue
		default:
			r.readErrors.Add(1)
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("capture: %d consecutive read failures: %w", failures, err)
			}
			log.Debug("frame read failed", "error", err)
			continue
		}
		r.read.Add(1)

		id := uuid.NewString()
		err = r.proc.ProcessByteBuffer(ctx, data, meta, r.ov)
		if r.OnFrame != nil {
			r.OnFrame(id, meta, err)
		}
		switch {
		case err == nil:
		case errors.Is(err, processor.ErrDetection):
			r.detectErrors.Add(1)
			log.Debug("frame detection failed", "frame_id", id, "error", err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
