// Package overlay holds the single source of truth for what the map draws:
// center, zoom, labelled markers and the route path.
package overlay

import (
	"sync"

	"georoute/internal/geom"
)

// Marker labels used by the route screen.
const (
	LabelStart = "start"
	LabelEnd   = "end"
)

// Marker is a labelled point on the map.
type Marker struct {
	Label string        `json:"label"`
	Point geom.GeoPoint `json:"point"`
}

// State is a read-only copy of the overlay.
type State struct {
	Center  *geom.GeoPoint `json:"center,omitempty"`
	Zoom    float64        `json:"zoom"`
	Markers []Marker       `json:"markers"`
	Path    geom.RoutePath `json:"path,omitempty"`
	// Version increases with every applied mutation.
	Version uint64 `json:"version"`
}

// Marker looks up a marker by label.
func (s State) Marker(label string) (Marker, bool) {
	for _, m := range s.Markers {
		if m.Label == label {
			return m, true
		}
	}
	return Marker{}, false
}

// Controller owns the overlay state. All methods are safe for concurrent use
// and become no-ops once Detach has been called.
type Controller struct {
	mu       sync.Mutex
	center   *geom.GeoPoint
	zoom     float64
	markers  []Marker
	path     geom.RoutePath
	version  uint64
	detached bool
	changed  chan struct{}
}

func NewController() *Controller {
	return &Controller{changed: make(chan struct{}, 1)}
}

// SetCenter replaces center and zoom.
func (c *Controller) SetCenter(p geom.GeoPoint, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.center = &p
	c.zoom = zoom
	c.touch()
}

// Recenter moves the center. zoom is used only when no center was set yet;
// otherwise the current zoom is kept.
func (c *Controller) Recenter(p geom.GeoPoint, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	if c.center == nil {
		c.zoom = zoom
	}
	c.center = &p
	c.touch()
}

// SetZoom changes the zoom level, keeping the center.
func (c *Controller) SetZoom(zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.zoom = zoom
	c.touch()
}

// AddMarker inserts or replaces the marker with the given label. A replaced
// marker keeps its original position in the marker order.
func (c *Controller) AddMarker(p geom.GeoPoint, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	for i := range c.markers {
		if c.markers[i].Label == label {
			c.markers[i].Point = p
			c.touch()
			return
		}
	}
	c.markers = append(c.markers, Marker{Label: label, Point: p})
	c.touch()
}

func (c *Controller) RemoveMarker(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	for i := range c.markers {
		if c.markers[i].Label == label {
			c.markers = append(c.markers[:i], c.markers[i+1:]...)
			c.touch()
			return
		}
	}
}

// SetPath replaces the route path; nil or empty clears it.
func (c *Controller) SetPath(path geom.RoutePath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	if len(path) == 0 {
		c.path = nil
	} else {
		c.path = path.Clone()
	}
	c.touch()
}

// Detach marks the owning screen as gone. It is idempotent.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.detached = true
	close(c.changed)
}

func (c *Controller) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Zoom:    c.zoom,
		Markers: make([]Marker, len(c.markers)),
		Path:    c.path.Clone(),
		Version: c.version,
	}
	copy(s.Markers, c.markers)
	if c.center != nil {
		center := *c.center
		s.Center = &center
	}
	return s
}

// Changed delivers a coalesced signal after mutations. It is closed on Detach.
func (c *Controller) Changed() <-chan struct{} { return c.changed }

// touch must be called with mu held.
func (c *Controller) touch() {
	c.version++
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
