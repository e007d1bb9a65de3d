package overlay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georoute/internal/geom"
)

var (
	home = geom.GeoPoint{Lat: 52.67345, Lon: -8.64706}
	shop = geom.GeoPoint{Lat: 52.670904, Lon: -8.642153}
)

func TestSetCenter(t *testing.T) {
	c := NewController()
	assert.Nil(t, c.Snapshot().Center)

	c.SetCenter(home, 15)
	s := c.Snapshot()
	require.NotNil(t, s.Center)
	assert.Equal(t, home, *s.Center)
	assert.Equal(t, 15.0, s.Zoom)

	c.SetZoom(16)
	s = c.Snapshot()
	assert.Equal(t, home, *s.Center)
	assert.Equal(t, 16.0, s.Zoom)
}

func TestAddMarkerUpserts(t *testing.T) {
	c := NewController()
	c.AddMarker(home, LabelStart)
	c.AddMarker(shop, LabelEnd)
	moved := geom.GeoPoint{Lat: 52.6720, Lon: -8.6460}
	c.AddMarker(moved, LabelStart)

	s := c.Snapshot()
	require.Len(t, s.Markers, 2)
	assert.Equal(t, Marker{Label: LabelStart, Point: moved}, s.Markers[0])
	m, ok := s.Marker(LabelEnd)
	require.True(t, ok)
	assert.Equal(t, shop, m.Point)

	c.RemoveMarker(LabelStart)
	c.RemoveMarker("missing")
	s = c.Snapshot()
	require.Len(t, s.Markers, 1)
	_, ok = s.Marker(LabelStart)
	assert.False(t, ok)
}

func TestSetPathAbsentClears(t *testing.T) {
	c := NewController()
	c.SetPath(geom.RoutePath{home, shop})
	assert.Len(t, c.Snapshot().Path, 2)

	c.SetPath(nil)
	assert.Nil(t, c.Snapshot().Path)

	c.SetPath(geom.RoutePath{home})
	c.SetPath(geom.RoutePath{})
	assert.Nil(t, c.Snapshot().Path, "empty path is stored as absent")
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewController()
	path := geom.RoutePath{home, shop}
	c.SetPath(path)
	c.SetCenter(home, 15)
	c.AddMarker(home, LabelStart)

	path[0] = geom.GeoPoint{}
	s := c.Snapshot()
	s.Path[1] = geom.GeoPoint{}
	s.Center.Lat = 0
	s.Markers[0].Label = "x"

	again := c.Snapshot()
	assert.Equal(t, geom.RoutePath{home, shop}, again.Path)
	assert.Equal(t, home, *again.Center)
	assert.Equal(t, LabelStart, again.Markers[0].Label)
}

func TestDetachMakesOperationsNoOps(t *testing.T) {
	c := NewController()
	c.SetCenter(home, 15)
	c.SetPath(geom.RoutePath{home, shop})
	before := c.Snapshot()

	c.Detach()
	c.Detach()
	assert.True(t, c.Detached())

	c.SetCenter(shop, 3)
	c.SetZoom(4)
	c.AddMarker(shop, LabelEnd)
	c.RemoveMarker(LabelEnd)
	c.SetPath(nil)
	assert.Equal(t, before, c.Snapshot())

	// a signal from before Detach may still be buffered
	for range c.Changed() {
	}
	_, open := <-c.Changed()
	assert.False(t, open, "changed channel closes on detach")
}

func TestRecenterKeepsZoom(t *testing.T) {
	c := NewController()
	c.Recenter(home, 15)
	assert.Equal(t, 15.0, c.Snapshot().Zoom)

	c.SetZoom(0)
	c.Recenter(shop, 15)
	s := c.Snapshot()
	assert.Equal(t, 0.0, s.Zoom)
	require.NotNil(t, s.Center)
	assert.Equal(t, shop, *s.Center)
}

func TestChangedCoalesces(t *testing.T) {
	c := NewController()
	c.SetCenter(home, 15)
	c.AddMarker(home, LabelStart)
	c.AddMarker(shop, LabelEnd)

	<-c.Changed()
	select {
	case <-c.Changed():
		t.Fatal("expected a single coalesced notification")
	default:
	}
	assert.Equal(t, uint64(3), c.Snapshot().Version)
}

func TestConcurrentWriters(t *testing.T) {
	c := NewController()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := geom.GeoPoint{Lat: float64(i), Lon: float64(j)}
				c.SetCenter(p, 15)
				c.AddMarker(p, LabelStart)
				c.AddMarker(p, fmt.Sprintf("m%d", i))
				c.SetPath(geom.RoutePath{p, home})
				_ = c.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Len(t, s.Markers, 9)
	assert.Len(t, s.Path, 2)
	assert.Equal(t, uint64(8*100*4), s.Version)
}
