package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FaizGusion00/weather-web/internal/geo"
)

var (
	// ErrUnsupported means no position source is available at all.
	ErrUnsupported = errors.New("geolocation unsupported")
	// ErrPermissionDenied means the position source refused the request.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrPositionUnavailable means the source could not produce a fix.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrTimeout covers both the source's own timeout and the resolver's
	// buffer timer.
	ErrTimeout = errors.New("geolocation timed out")
)

// PositionOptions mirrors the options of a single-shot position request.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is the oldest cached fix the source may return.
	MaximumAge time.Duration
}

// PositionSource is a platform capability that produces the device's
// current coordinate once per call.
type PositionSource interface {
	Position(ctx context.Context, opts PositionOptions) (geo.Coordinate, error)
}

// Resolver wraps a PositionSource with an explicit deadline. The source is
// invoked exactly once per Resolve call and raced against a timer set to
// the requested timeout plus a fixed buffer; whichever settles first is
// authoritative and the loser is ignored.
//
// Resolver has no storage or cache side effects, and it does not dedup
// overlapping calls; that is the caller's concern.
type Resolver struct {
	source PositionSource
	buffer time.Duration
}

// NewResolver creates a Resolver. A zero buffer defaults to 2s.
func NewResolver(source PositionSource, buffer time.Duration) *Resolver {
	if buffer <= 0 {
		buffer = 2 * time.Second
	}
	return &Resolver{source: source, buffer: buffer}
}

// Resolve asks the source for the current position.
func (r *Resolver) Resolve(ctx context.Context, opts PositionOptions) (geo.Coordinate, error) {
	if r.source == nil {
		return geo.Coordinate{}, ErrUnsupported
	}

	type result struct {
		coord geo.Coordinate
		err   error
	}

	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a late source callback never blocks; after the timer
	// fires the value is simply never read.
	ch := make(chan result, 1)
	go func() {
		coord, err := r.source.Position(srcCtx, opts)
		ch <- result{coord: coord, err: err}
	}()

	timer := time.NewTimer(opts.Timeout + r.buffer)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return geo.Coordinate{}, ErrTimeout
			}
			return geo.Coordinate{}, res.err
		}
		if err := res.coord.Validate(); err != nil {
			return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
		}
		return res.coord, nil
	case <-timer.C:
		return geo.Coordinate{}, ErrTimeout
	case <-ctx.Done():
		return geo.Coordinate{}, ctx.Err()
	}
}
