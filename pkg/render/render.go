// Package render turns overlay redraw requests into encoded composite
// frames. The overlay is drawn onto an RGBA canvas at its view size,
// encoded as JPEG and handed to every registered sink.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-overlay/internal/log"
	"github.com/teslashibe/go-overlay/pkg/overlay"
	"golang.org/x/time/rate"
)

// Sink receives every encoded composite frame. Sinks must not block
// and must not modify the buffer.
type Sink func(jpeg []byte)

// Config holds render loop options.
type Config struct {
	Quality    int         // JPEG quality 1-100
	MaxFPS     int         // Upper bound on frames per second, 0 = unbounded
	Background color.Color // Fill beneath the graphics
}

// DefaultConfig returns 80% JPEG at up to 30 FPS on black.
func DefaultConfig() Config {
	return Config{
		Quality:    80,
		MaxFPS:     30,
		Background: color.Black,
	}
}

// Stats counts render loop activity.
type Stats struct {
	Frames     int64         `json:"frames"`
	Errors     int64         `json:"errors"`
	LastRender time.Duration `json:"last_render_ns"`
	LastSize   int           `json:"last_size"`
}

// Renderer owns the render pass for one overlay.
type Renderer struct {
	ov      *overlay.Overlay
	limiter *rate.Limiter

	quality    atomic.Int32
	background color.Color

	mu     sync.RWMutex
	sinks  []Sink
	latest []byte
	stats  Stats
}

// New creates a renderer for ov.
func New(ov *overlay.Overlay, cfg Config) *Renderer {
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	limit := rate.Inf
	if cfg.MaxFPS > 0 {
		limit = rate.Limit(cfg.MaxFPS)
	}
	r := &Renderer{
		ov:         ov,
		limiter:    rate.NewLimiter(limit, 1),
		background: cfg.Background,
	}
	r.SetQuality(cfg.Quality)
	return r
}

// SetQuality changes the JPEG quality. Out of range values fall back
// to the default.
func (r *Renderer) SetQuality(q int) {
	if q < 1 || q > 100 {
		q = DefaultConfig().Quality
	}
	r.quality.Store(int32(q))
}

// AddSink registers s for every subsequent frame.
func (r *Renderer) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Latest returns the most recent encoded frame, or nil before the first.
func (r *Renderer) Latest() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Stats returns a snapshot of the render counters.
func (r *Renderer) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// RenderOnce draws the overlay and returns the encoded frame.
func (r *Renderer) RenderOnce() ([]byte, error) {
	start := time.Now()

	snap, err := r.ov.Snapshot()
	if err != nil {
		return nil, err
	}
	w, h := snap.Transform.ViewSize()
	c := overlay.NewRGBACanvas(w, h)
	c.Fill(r.background)
	snap.Draw(c)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, c.Image(), &jpeg.Options{Quality: int(r.quality.Load())}); err != nil {
		return nil, fmt.Errorf("encode composite: %w", err)
	}
	out := buf.Bytes()

	r.mu.Lock()
	r.latest = out
	r.stats.Frames++
	r.stats.LastRender = time.Since(start)
	r.stats.LastSize = len(out)
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	for _, s := range sinks {
		s(out)
	}
	return out, nil
}

// Run renders on every overlay invalidation until ctx is cancelled.
// Requests arriving faster than MaxFPS are coalesced by the overlay.
func (r *Renderer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.ov.Invalidated():
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		if _, err := r.RenderOnce(); err != nil {
			r.mu.Lock()
			r.stats.Errors++
			r.mu.Unlock()
			if errors.Is(err, overlay.ErrNotConfigured) {
				log.Debug("skipping render, overlay not configured")
				continue
			}
			log.Warn("render failed", "error", err)
		}
	}
}
