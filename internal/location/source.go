// Package location provides device-position event sources.
package location

import (
	"context"
	"errors"
	"time"

	"georoute/internal/geom"
)

const (
	DefaultInterval        = 10 * time.Second
	DefaultFastestInterval = 5 * time.Second
)

// Source yields positions until it is exhausted or ctx is done, then closes
// the channel. Consumers treat the most recent sample as current.
type Source interface {
	Updates(ctx context.Context) <-chan geom.GeoPoint
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) <-chan geom.GeoPoint

func (f SourceFunc) Updates(ctx context.Context) <-chan geom.GeoPoint { return f(ctx) }

// Replay emits a fixed sequence of points: the first immediately, then one
// per Interval. With Loop set it starts over after the last point.
type Replay struct {
	Points   []geom.GeoPoint
	Interval time.Duration
	Loop     bool
}

// NewReplay validates points and returns a Replay at the given interval.
func NewReplay(points []geom.GeoPoint, interval time.Duration, loop bool) (*Replay, error) {
	if len(points) == 0 {
		return nil, errors.New("location: replay needs at least one point")
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Replay{Points: points, Interval: interval, Loop: loop}, nil
}

// NewFixed reports a single position once.
func NewFixed(p geom.GeoPoint) (*Replay, error) {
	return NewReplay([]geom.GeoPoint{p}, DefaultInterval, false)
}

// LoadReplay reads a track file (see geom.LoadTrack) into a Replay.
func LoadReplay(path string, interval time.Duration, loop bool) (*Replay, error) {
	pts, err := geom.LoadTrack(path)
	if err != nil {
		return nil, err
	}
	return NewReplay(pts, interval, loop)
}

func (r *Replay) Updates(ctx context.Context) <-chan geom.GeoPoint {
	out := make(chan geom.GeoPoint)
	go func() {
		defer close(out)
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for n := 0; ; n++ {
			if n >= len(r.Points) && !r.Loop {
				return
			}
			if n > 0 {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- r.Points[n%len(r.Points)]:
			}
		}
	}()
	return out
}
