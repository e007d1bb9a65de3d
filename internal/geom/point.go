package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ErrOutOfRange is returned for coordinates outside WGS 84 bounds.
var ErrOutOfRange = errors.New("coordinate out of range")

// GeoPoint is a WGS 84 latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint returns a validated point.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate reports whether both coordinates are finite and within range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v: %w", p.Lat, ErrOutOfRange)
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v: %w", p.Lon, ErrOutOfRange)
	}
	return nil
}

// LonLat formats the point as "lon,lat", the order routing services expect.
// Shortest round-trip formatting keeps ParseLonLat(p.LonLat()) == p.
func (p GeoPoint) LonLat() string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// ParseLonLat is the inverse of LonLat.
func ParseLonLat(s string) (GeoPoint, error) {
	lon, lat, err := splitPair(s)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("lon,lat %q: %w", s, err)
	}
	return NewGeoPoint(lat, lon)
}

// ParseLatLon parses the human-facing "lat,lon" order.
func ParseLatLon(s string) (GeoPoint, error) {
	lat, lon, err := splitPair(s)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("lat,lon %q: %w", s, err)
	}
	return NewGeoPoint(lat, lon)
}

func splitPair(s string) (float64, float64, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, errors.New("expected two comma-separated numbers")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// FromLonLatPair converts a GeoJSON position ([lon, lat, ...]) into a point.
func FromLonLatPair(pair []float64) (GeoPoint, error) {
	if len(pair) < 2 {
		return GeoPoint{}, fmt.Errorf("position has %d values, want at least 2", len(pair))
	}
	return NewGeoPoint(pair[1], pair[0])
}

// Point returns the orb representation (lon, lat).
func (p GeoPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// FromOrb converts an orb point (lon, lat) into a GeoPoint.
func FromOrb(p orb.Point) GeoPoint { return GeoPoint{Lat: p.Lat(), Lon: p.Lon()} }

// DistanceTo returns the great-circle distance in meters.
func (p GeoPoint) DistanceTo(q GeoPoint) float64 {
	return geo.Distance(p.Point(), q.Point())
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

// RoutePath is an ordered walk along a route; nil means no path.
type RoutePath []GeoPoint

// LineString converts the path to orb geometry.
func (r RoutePath) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(r))
	for _, p := range r {
		ls = append(ls, p.Point())
	}
	return ls
}

// Bound returns the lon/lat bounding box of the path.
func (r RoutePath) Bound() orb.Bound { return r.LineString().Bound() }

// Length returns the path length in meters.
func (r RoutePath) Length() float64 {
	if len(r) < 2 {
		return 0
	}
	return geo.Length(r.LineString())
}

// Clone returns an independent copy; nil stays nil.
func (r RoutePath) Clone() RoutePath {
	if r == nil {
		return nil
	}
	out := make(RoutePath, len(r))
	copy(out, r)
	return out
}
