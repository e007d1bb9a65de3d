package geom

import (
	"encoding/xml"
	"errors"
	"os"
	"strconv"
	"strings"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPlacemark struct {
	Point      *kmlCoords `xml:"Point"`
	LineString *kmlCoords `xml:"LineString"`
}

type kmlFolder struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDoc struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
	Document   *kmlFolder     `xml:"Document"`
}

// LoadKML extracts Point and LineString placemark vertices from a KML file,
// in document order. KML coordinates are "lon,lat[,alt]"; altitude is ignored.
func LoadKML(path string) ([]GeoPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var points []GeoPoint
	addCoords := func(c *kmlCoords) {
		if c == nil {
			return
		}
		// tuples are separated by whitespace
		for _, tuple := range strings.Fields(c.Coordinates) {
			vals := strings.Split(tuple, ",")
			if len(vals) < 2 {
				continue
			}
			lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
			lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
			if err1 != nil || err2 != nil {
				continue
			}
			if p, err := NewGeoPoint(lat, lon); err == nil {
				points = append(points, p)
			}
		}
	}
	var walk func(pms []kmlPlacemark, folders []kmlFolder)
	walk = func(pms []kmlPlacemark, folders []kmlFolder) {
		for _, pm := range pms {
			addCoords(pm.Point)
			addCoords(pm.LineString)
		}
		for _, f := range folders {
			walk(f.Placemarks, f.Folders)
		}
	}
	walk(doc.Placemarks, doc.Folders)
	if doc.Document != nil {
		walk(doc.Document.Placemarks, doc.Document.Folders)
	}
	if len(points) == 0 {
		return nil, errors.New("kml: no points found")
	}
	return points, nil
}
