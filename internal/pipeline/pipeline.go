// Package pipeline turns device positions into a routed overlay: each new
// start point recenters the map, moves the "start" marker and, when it has
// moved far enough, fetches a fresh route to the destination.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"georoute/internal/geom"
	"georoute/internal/location"
	"georoute/internal/metrics"
	"georoute/internal/overlay"
)

const (
	DefaultZoom            = 15.0
	DefaultRerouteDistance = 25.0 // meters
	eventBuffer            = 32
)

// Fetcher is satisfied by *route.Client.
type Fetcher interface {
	FetchRoute(ctx context.Context, start, end geom.GeoPoint) (geom.RoutePath, error)
}

type Config struct {
	Destination geom.GeoPoint
	// Zoom applies to the first fix only; later fixes keep the current zoom.
	Zoom float64
	// RerouteDistance is how far, in meters, the start must move from the
	// last requested start before a new route is fetched. Zero refetches on
	// every fix.
	RerouteDistance float64
	// FastestInterval drops location samples arriving faster than this.
	FastestInterval time.Duration
}

type EventKind int

const (
	EventLocation EventKind = iota + 1
	EventFetching
	EventRouteApplied
	EventNoRoute
	EventRouteFailed
	EventStale
	EventDestination
)

func (k EventKind) String() string {
	switch k {
	case EventLocation:
		return "location"
	case EventFetching:
		return "fetching"
	case EventRouteApplied:
		return "route"
	case EventNoRoute:
		return "no route"
	case EventRouteFailed:
		return "route failed"
	case EventStale:
		return "stale"
	case EventDestination:
		return "destination"
	default:
		return "unknown"
	}
}

// Event reports pipeline progress to the screen.
type Event struct {
	Kind  EventKind
	Point geom.GeoPoint
	// Points is the vertex count of an applied route.
	Points int
	// Length of an applied route in meters.
	Length float64
	Err    error
	At     time.Time
}

// Pipeline coordinates location updates, route fetches and the overlay.
type Pipeline struct {
	ctrl    *overlay.Controller
	fetcher Fetcher
	cfg     Config
	log     *zap.Logger
	events  chan Event

	mu        sync.Mutex
	base      context.Context
	start     *geom.GeoPoint
	requested *geom.GeoPoint
	dest      geom.GeoPoint
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
	inflight  sync.WaitGroup
}

func New(ctrl *overlay.Controller, fetcher Fetcher, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.Zoom < 0 {
		cfg.Zoom = DefaultZoom
	}
	if cfg.RerouteDistance < 0 {
		cfg.RerouteDistance = DefaultRerouteDistance
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		ctrl:    ctrl,
		fetcher: fetcher,
		cfg:     cfg,
		log:     log,
		events:  make(chan Event, eventBuffer),
		base:    context.Background(),
		dest:    cfg.Destination,
	}
}

// Events delivers progress notifications. Slow readers miss events.
func (p *Pipeline) Events() <-chan Event { return p.events }

// Destination returns the current route end point.
func (p *Pipeline) Destination() geom.GeoPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dest
}

// Run consumes src until ctx is done. An exhausted source leaves the
// pipeline serving SetDestination and Refresh. On return the in-flight fetch
// has been cancelled and has finished, and no new fetch will start.
func (p *Pipeline) Run(ctx context.Context, src location.Source) error {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()

	p.ctrl.AddMarker(p.Destination(), overlay.LabelEnd)

	updates := location.Throttle(ctx, src.Updates(ctx), p.cfg.FastestInterval, nil)
	for pt := range updates {
		p.HandleLocation(pt)
	}
	<-ctx.Done()

	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	p.inflight.Wait()

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// HandleLocation applies a new device position.
func (p *Pipeline) HandleLocation(pt geom.GeoPoint) {
	if err := pt.Validate(); err != nil {
		p.log.Warn("ignoring invalid location", zap.Error(err))
		return
	}
	metrics.LocationUpdates.WithLabelValues("applied").Inc()

	p.ctrl.Recenter(pt, p.cfg.Zoom)
	p.ctrl.AddMarker(pt, overlay.LabelStart)

	p.mu.Lock()
	p.start = &pt
	dest := p.dest
	reroute := p.requested == nil || p.requested.DistanceTo(pt) >= p.cfg.RerouteDistance
	p.mu.Unlock()

	p.ctrl.AddMarker(dest, overlay.LabelEnd)
	p.emit(Event{Kind: EventLocation, Point: pt})
	if reroute {
		p.fetch(pt, dest)
	}
}

// SetDestination moves the end marker and re-routes when a start is known.
func (p *Pipeline) SetDestination(dest geom.GeoPoint) error {
	if err := dest.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.dest = dest
	start := p.start
	p.mu.Unlock()

	p.ctrl.AddMarker(dest, overlay.LabelEnd)
	p.emit(Event{Kind: EventDestination, Point: dest})
	if start != nil {
		p.fetch(*start, dest)
	}
	return nil
}

// Refresh re-fetches the route for the current start. It reports false when
// no location has been received yet or the pipeline has shut down.
func (p *Pipeline) Refresh() bool {
	p.mu.Lock()
	start, dest := p.start, p.dest
	p.mu.Unlock()
	if start == nil {
		return false
	}
	return p.fetch(*start, dest)
}

// fetch supersedes any in-flight fetch and starts a new one. It reports false
// once Run has shut down.
func (p *Pipeline) fetch(start, dest geom.GeoPoint) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.requested = &start
	p.inflight.Add(1)
	p.mu.Unlock()

	p.emit(Event{Kind: EventFetching, Point: start})
	go func() {
		defer p.inflight.Done()
		defer cancel()
		path, err := p.fetcher.FetchRoute(ctx, start, dest)
		p.apply(gen, path, err)
	}()
	return true
}

// apply installs a fetch result unless it has been superseded or the overlay
// is detached. Holding mu across the check and SetPath keeps a newer fetch
// from starting in between.
func (p *Pipeline) apply(gen uint64, path geom.RoutePath, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.ctrl.Detached() || errors.Is(err, context.Canceled) {
		metrics.StaleRoutesDiscarded.Inc()
		p.log.Debug("discarding stale route result", zap.Uint64("generation", gen))
		p.emit(Event{Kind: EventStale})
		return
	}
	p.cancel = nil
	switch {
	case err != nil:
		// state stays as it was; the previous path, if any, remains drawn
		p.log.Warn("route unavailable", zap.Error(err))
		p.emit(Event{Kind: EventRouteFailed, Err: err})
	case len(path) == 0:
		p.ctrl.SetPath(nil)
		metrics.RoutePoints.Set(0)
		p.emit(Event{Kind: EventNoRoute})
	default:
		p.ctrl.SetPath(path)
		metrics.RoutePoints.Set(float64(len(path)))
		p.emit(Event{Kind: EventRouteApplied, Points: len(path), Length: path.Length()})
	}
}

func (p *Pipeline) emit(e Event) {
	e.At = time.Now()
	select {
	case p.events <- e:
	default:
	}
}
