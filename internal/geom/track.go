package geom

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrackExtensions lists the file extensions LoadTrack understands.
var TrackExtensions = []string{".geojson", ".json", ".csv", ".kml", ".wkt"}

// LoadTrack loads an ordered list of positions from a supported file.
func LoadTrack(path string) ([]GeoPoint, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	case ".csv":
		return LoadCSV(path)
	case ".kml":
		return LoadKML(path)
	case ".wkt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseWKT(string(data))
	default:
		return nil, fmt.Errorf("unsupported track file: %q", ext)
	}
}
