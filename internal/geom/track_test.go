package geom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrack(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

var limerick = []GeoPoint{
	{Lat: 52.67345, Lon: -8.64706},
	{Lat: 52.6715, Lon: -8.6445},
}

func TestLoadTrackGeoJSON(t *testing.T) {
	p := writeTrack(t, "walk.geojson", `{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[-8.64706, 52.67345], [-8.6445, 52.6715]]}},
	    {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
	    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [-8.642153, 52.670904]}}
	  ]
	}`)
	pts, err := LoadTrack(p)
	require.NoError(t, err)
	assert.Equal(t, append(append([]GeoPoint{}, limerick...), GeoPoint{Lat: 52.670904, Lon: -8.642153}), pts)
}

func TestParseGeoJSONBareGeometry(t *testing.T) {
	pts, err := ParseGeoJSON([]byte(`{"type":"MultiPoint","coordinates":[[-8.64706,52.67345],[-8.6445,52.6715]]}`))
	require.NoError(t, err)
	assert.Equal(t, limerick, pts)

	_, err = ParseGeoJSON([]byte(`{"coordinates":[]}`))
	assert.Error(t, err)
	_, err = ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`))
	assert.Error(t, err)
}

func TestLoadTrackCSV(t *testing.T) {
	p := writeTrack(t, "walk.csv", "name,Latitude,Longitude\na,52.67345,-8.64706\nbad,x,y\nb,52.6715,-8.6445\n")
	pts, err := LoadTrack(p)
	require.NoError(t, err)
	assert.Equal(t, limerick, pts)

	p = writeTrack(t, "nocols.csv", "a,b\n1,2\n")
	_, err = LoadTrack(p)
	assert.Error(t, err)
}

func TestLoadTrackKML(t *testing.T) {
	p := writeTrack(t, "walk.kml", `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><Point><coordinates>-8.64706,52.67345,0</coordinates></Point></Placemark>
    <Folder>
      <Placemark><LineString><coordinates>-8.6445,52.6715 -8.642153,52.670904</coordinates></LineString></Placemark>
    </Folder>
  </Document>
</kml>`)
	pts, err := LoadTrack(p)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, limerick, pts[:2])
	assert.Equal(t, GeoPoint{Lat: 52.670904, Lon: -8.642153}, pts[2])
}

func TestLoadTrackWKT(t *testing.T) {
	p := writeTrack(t, "walk.wkt", "LINESTRING (-8.64706 52.67345, -8.6445 52.6715)")
	pts, err := LoadTrack(p)
	require.NoError(t, err)
	assert.Equal(t, limerick, pts)

	pts, err = ParseWKT("MULTIPOINT ((-8.64706 52.67345), (-8.6445 52.6715))")
	require.NoError(t, err)
	assert.Equal(t, limerick, pts)
}

func TestParseWKTRejectsMalformedInput(t *testing.T) {
	for name, in := range map[string]string{
		"bad coordinate":  "LINESTRING(-8.64706 52.67345, -8.6445 oops, -8.642153 52.670904)",
		"missing paren":   "LINESTRING -8.64706 52.67345",
		"polygon":         "POLYGON((0 0, 1 0, 1 1, 0 0))",
		"out of range":    "POINT(-8.64706 95)",
		"empty":           "   ",
		"unknown keyword": "CIRCLE(1 2)",
	} {
		t.Run(name, func(t *testing.T) {
			pts, err := ParseWKT(in)
			assert.Error(t, err)
			assert.Nil(t, pts)
		})
	}

	pts, err := ParseWKT("LINESTRING(-8.64706 52.67345, -8.6445 52.6715, -8.642153 52.670904)\r\n")
	require.NoError(t, err)
	assert.Len(t, pts, 3)
}

func TestLoadTrackUnsupported(t *testing.T) {
	_, err := LoadTrack("walk.gpx")
	assert.Error(t, err)
}
