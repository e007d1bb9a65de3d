package geom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseWKT parses POINT, MULTIPOINT, LINESTRING, MULTILINESTRING or
// GEOMETRYCOLLECTION text into an ordered list of vertices. Any malformed
// coordinate fails the whole parse.
func ParseWKT(s string) ([]GeoPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("wkt: %w", err)
	}
	pts, err := vertices(g)
	if err != nil {
		return nil, fmt.Errorf("wkt: %w", err)
	}
	if len(pts) == 0 {
		return nil, errors.New("wkt: no coordinates parsed")
	}
	return pts, nil
}

// vertices flattens point and line geometries in order, validating each
// position.
func vertices(g orb.Geometry) ([]GeoPoint, error) {
	var out []GeoPoint
	var walk func(g orb.Geometry) error
	add := func(ps ...orb.Point) error {
		for _, p := range ps {
			gp := FromOrb(p)
			if err := gp.Validate(); err != nil {
				return err
			}
			out = append(out, gp)
		}
		return nil
	}
	walk = func(g orb.Geometry) error {
		switch g := g.(type) {
		case nil:
			return nil
		case orb.Point:
			return add(g)
		case orb.MultiPoint:
			return add(g...)
		case orb.LineString:
			return add(g...)
		case orb.MultiLineString:
			for _, ls := range g {
				if err := add(ls...); err != nil {
					return err
				}
			}
		case orb.Collection:
			for _, c := range g {
				if err := walk(c); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported geometry %s", g.GeoJSONType())
		}
		return nil
	}
	if err := walk(g); err != nil {
		return nil, err
	}
	return out, nil
}

// ParsePoint accepts either "lat,lon" or a WKT POINT(lon lat).
func ParsePoint(s string) (GeoPoint, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "POINT") {
		p, err := wkt.UnmarshalPoint(s)
		if err != nil {
			return GeoPoint{}, fmt.Errorf("wkt point %q: %w", s, err)
		}
		gp := FromOrb(p)
		if err := gp.Validate(); err != nil {
			return GeoPoint{}, err
		}
		return gp, nil
	}
	return ParseLatLon(s)
}
