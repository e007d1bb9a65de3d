package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a GeoJSON file and returns its point and line vertices
// in document order. Supports Feature, FeatureCollection and bare geometries
// of type Point, MultiPoint, LineString, MultiLineString and GeometryCollection.
func LoadGeoJSON(path string) ([]GeoPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON is LoadGeoJSON over an in-memory document.
func ParseGeoJSON(data []byte) ([]GeoPoint, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var geoms []orb.Geometry
	switch head.Type {
	case "":
		return nil, errors.New("invalid geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, g.Geometry())
	}

	var points []GeoPoint
	var walk func(g orb.Geometry) error
	add := func(p orb.Point) error {
		gp := FromOrb(p)
		if err := gp.Validate(); err != nil {
			return err
		}
		points = append(points, gp)
		return nil
	}
	walk = func(g orb.Geometry) error {
		switch g := g.(type) {
		case orb.Point:
			return add(g)
		case orb.MultiPoint:
			for _, p := range g {
				if err := add(p); err != nil {
					return err
				}
			}
		case orb.LineString:
			for _, p := range g {
				if err := add(p); err != nil {
					return err
				}
			}
		case orb.MultiLineString:
			for _, ls := range g {
				if err := walk(ls); err != nil {
					return err
				}
			}
		case orb.Collection:
			for _, c := range g {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if err := walk(g); err != nil {
			return nil, fmt.Errorf("geojson: %w", err)
		}
	}
	if len(points) == 0 {
		return nil, errors.New("no point or line geometries found")
	}
	return points, nil
}
