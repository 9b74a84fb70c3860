// Package processor runs a detector on camera frames and publishes the
// result to an overlay as a fresh set of graphics.
//
// A processor is Ready until Stop is called, then Stopped for good. At
// most one frame is processed at a time; frames arriving while one is
// in flight are dropped so latency stays bounded under slow detectors.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/detection"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/graphic"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// VisionImageProcessor is the capability the capture side drives. The
// pipeline is written against this interface only.
type VisionImageProcessor interface {
	// ProcessByteBuffer runs detection on one NV21 frame and, on success,
	// replaces ov's graphics with the result. data must hold exactly
	// meta.BufferSize() bytes and must not be modified until the call
	// returns.
	ProcessByteBuffer(ctx context.Context, data []byte, meta frame.Metadata, ov *overlay.Overlay) error

	// Stop releases the detector. It is safe to call more than once and
	// concurrently with ProcessByteBuffer.
	Stop()
}

// GraphicsFunc builds the graphics for one detection result, bound to
// the overlay identified by h.
type GraphicsFunc[T any] func(h overlay.Handle, result T, meta frame.Metadata) []overlay.Graphic

// State is the processor lifecycle state.
type State int

const (
	StateReady State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "ready"
}

// Config holds processor options.
type Config struct {
	// Name identifies the processor in logs and errors.
	Name string

	// DrawCameraImage attaches the frame itself beneath the annotations,
	// for surfaces that have no separate camera preview.
	DrawCameraImage bool
}

// DefaultConfig returns a config with no camera background.
func DefaultConfig() Config {
	return Config{Name: "vision"}
}

// Processor drives a Detector[T] and turns its results into graphics.
type Processor[T any] struct {
	id       string
	cfg      Config
	detector detection.Detector[T]
	graphics GraphicsFunc[T]
	metrics  *MetricsCollector
	logger   *slog.Logger

	busy atomic.Bool

	mu      sync.Mutex
	stopped bool
	ctx     context.Context // Cancelled by Stop
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	closeOnce sync.Once
}

var _ VisionImageProcessor = (*Processor[int])(nil)

// New creates a Ready processor. The processor owns det and closes it on
// Stop.
func New[T any](cfg Config, det detection.Detector[T], fn GraphicsFunc[T]) *Processor[T] {
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Processor[T]{
		id:       id,
		cfg:      cfg,
		detector: det,
		graphics: fn,
		metrics:  NewMetricsCollector(),
		logger:   log.With("component", "processor", "name", cfg.Name, "id", id[:8]),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the processor's unique identifier.
func (p *Processor[T]) ID() string { return p.id }

// Name returns the configured name.
func (p *Processor[T]) Name() string { return p.cfg.Name }

// Metrics returns the processor's metrics collector.
func (p *Processor[T]) Metrics() *MetricsCollector { return p.metrics }

// State returns the current lifecycle state.
func (p *Processor[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return StateStopped
	}
	return StateReady
}

// ProcessByteBuffer implements VisionImageProcessor.
//
// It returns ErrStopped after Stop, an error wrapping
// frame.ErrPrecondition for a malformed buffer, and a *DetectionError
// when the detector fails. In every error case ov is left untouched. A
// frame delivered while another is in flight is dropped and nil is
// returned.
func (p *Processor[T]) ProcessByteBuffer(ctx context.Context, data []byte, meta frame.Metadata, ov *overlay.Overlay) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.metrics.MarkRejected()
		p.logger.Error("frame after stop", "frame", meta.String())
		return ErrStopped
	}
	if err := p.checkInput(data, meta, ov); err != nil {
		p.mu.Unlock()
		p.metrics.MarkRejected()
		p.logger.Error("rejected frame", "error", err)
		return err
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.mu.Unlock()
		p.metrics.MarkDropped()
		p.logger.Debug("dropped frame, detector busy", "frame", meta.String())
		return nil
	}
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	defer p.busy.Store(false)

	detectCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := context.AfterFunc(p.ctx, cancel)
	defer stopWatch()

	start := time.Now()
	result, err := p.detector.Detect(detectCtx, data, meta)
	latency := time.Since(start)
	if err != nil {
		if p.ctx.Err() != nil {
			return ErrStopped
		}
		p.metrics.MarkFailed(latency)
		p.logger.Warn("detection failed", "error", err, "latency", latency)
		return &DetectionError{Processor: p.cfg.Name, Err: err}
	}

	gs, err := p.buildGraphics(ov.Handle(), result, data, meta)
	if err != nil {
		p.metrics.MarkFailed(latency)
		return &DetectionError{Processor: p.cfg.Name, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if err := ov.ReplaceFrame(overlay.CameraInfoFrom(meta), gs); err != nil {
		return fmt.Errorf("processor %s: publish graphics: %w", p.cfg.Name, err)
	}
	p.metrics.MarkProcessed(latency)
	return nil
}

func (p *Processor[T]) checkInput(data []byte, meta frame.Metadata, ov *overlay.Overlay) error {
	if ov == nil {
		return fmt.Errorf("%w: nil overlay", frame.ErrPrecondition)
	}
	return frame.CheckBuffer(data, meta)
}

// buildGraphics assembles the frame's graphics, camera background first.
func (p *Processor[T]) buildGraphics(h overlay.Handle, result T, data []byte, meta frame.Metadata) ([]overlay.Graphic, error) {
	var gs []overlay.Graphic
	if p.cfg.DrawCameraImage {
		img, err := frame.ToImage(data, meta)
		if err != nil {
			return nil, err
		}
		gs = append(gs, graphic.NewCameraImage(h, img))
	}
	if p.graphics != nil {
		gs = append(gs, p.graphics(h, result, meta)...)
	}
	return gs, nil
}

// Stop implements VisionImageProcessor. It cancels an in-flight
// detection, waits for it to return and closes the detector once. No
// overlay is modified by this processor after Stop returns.
func (p *Processor[T]) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.closeOnce.Do(func() {
		if err := p.detector.Close(); err != nil {
			p.logger.Warn("detector close failed", "error", err)
		}
		m := p.metrics.Current()
		p.logger.Info("processor stopped",
			"processed", m.Processed,
			"dropped", m.Dropped,
			"failed", m.Failed,
			"rejected", m.Rejected)
	})
}
