package tui

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"georoute/internal/geom"
	"georoute/internal/overlay"
)

const (
	tileSize = 256.0
	// half the Web Mercator world width in meters
	originShift = math.Pi * 6378137
	maxMercLat  = 85.05112878
	maxZoom     = 20.0
)

// worldPixel projects p to Web Mercator pixel coordinates at zoom, with
// y growing southward. One braille micro-pixel is one map pixel.
func worldPixel(p geom.GeoPoint, zoom float64) (float64, float64) {
	lat := math.Max(-maxMercLat, math.Min(maxMercLat, p.Lat))
	mp := project.WGS84.ToMercator(orb.Point{p.Lon, lat})
	scale := tileSize * math.Exp2(zoom) / (2 * originShift)
	return (mp[0] + originShift) * scale, (originShift - mp[1]) * scale
}

func fromWorldPixel(x, y, zoom float64) geom.GeoPoint {
	scale := tileSize * math.Exp2(zoom) / (2 * originShift)
	ll := project.Mercator.ToWGS84(orb.Point{x/scale - originShift, originShift - y/scale})
	return geom.FromOrb(ll)
}

// screenXYMicro maps p into the 2x4 microgrid of a w by h cell viewport
// centered on the overlay center and shifted by the pan offset.
func (m Model) screenXYMicro(p geom.GeoPoint, w, h int) (int, int, bool) {
	if m.state.Center == nil {
		return 0, 0, false
	}
	cx, cy := worldPixel(*m.state.Center, m.state.Zoom)
	px, py := worldPixel(p, m.state.Zoom)
	sx := int(math.Round(px-cx)) + w + m.offsetX*2
	sy := int(math.Round(py-cy)) + h*2 + m.offsetY*4
	return sx, sy, true
}

// cellToLonLat converts a map cell back to a geographic position.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if m.state.Center == nil || w <= 1 || h <= 1 {
		return 0, 0, false
	}
	ox, oy := worldPixel(*m.state.Center, m.state.Zoom)
	mx := float64(cx*2+1 - w - m.offsetX*2)
	my := float64(cy*4+2 - h*2 - m.offsetY*4)
	p := fromWorldPixel(ox+mx, oy+my, m.state.Zoom)
	return p.Lon, p.Lat, true
}

func markerGlyph(label string) string {
	switch label {
	case overlay.LabelStart:
		return "S"
	case overlay.LabelEnd:
		return "E"
	}
	if r, _ := utf8.DecodeRuneInString(label); r != utf8.RuneError {
		return string(unicode.ToUpper(r))
	}
	return "•"
}

func markerStyle(label string) lipgloss.Style {
	switch label {
	case overlay.LabelStart:
		return startStyle
	case overlay.LabelEnd:
		return endStyle
	}
	return titleStyle
}

func (m Model) renderMap(w, h int) string {
	if m.state.Center == nil {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dimStyle.Render("Waiting for device location..."))
	}

	br := newBrailleBuf(w, h)
	if m.showPath && len(m.state.Path) > 1 {
		var prev *[2]int
		for _, p := range m.state.Path {
			mx, my, ok := m.screenXYMicro(p, w, h)
			if !ok {
				continue
			}
			if prev != nil {
				br.drawLineMicro(prev[0], prev[1], mx, my)
			}
			prev = &[2]int{mx, my}
		}
	}

	// one string per cell so styled glyphs can replace single cells
	cells := make([][]string, h)
	for y, line := range br.toLines() {
		row := make([]string, 0, w)
		for _, r := range line {
			row = append(row, string(r))
		}
		cells[y] = row
	}
	put := func(mx, my int, s string) {
		cx, cy := mx/2, my/4
		if mx < 0 || my < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
			return
		}
		cells[cy][cx] = s
	}

	if m.showMarkers {
		for _, mk := range m.state.Markers {
			mx, my, ok := m.screenXYMicro(mk.Point, w, h)
			if !ok {
				continue
			}
			put(mx, my, markerStyle(mk.Label).Render(markerGlyph(mk.Label)))
		}
	}

	if m.hovering {
		put(m.hoverMicX, m.hoverMicY, hoverStyle.Render("◯"))
	}

	lines := make([]string, len(cells))
	for y, row := range cells {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// nearestVertex finds the drawn vertex or marker closest to micro position
// (hx, hy). The index is -1 for a marker or when nothing is drawn.
func (m Model) nearestVertex(hx, hy, w, h int) (int, int, int) {
	best, idx := math.MaxInt, -1
	bx, by := hx, hy
	consider := func(i int, p geom.GeoPoint) {
		mx, my, ok := m.screenXYMicro(p, w, h)
		if !ok {
			return
		}
		dx, dy := mx-hx, my-hy
		if d := dx*dx + dy*dy; d < best {
			best, idx = d, i
			bx, by = mx, my
		}
	}
	if m.showPath {
		for i, p := range m.state.Path {
			consider(i, p)
		}
	}
	if m.showMarkers {
		for _, mk := range m.state.Markers {
			consider(-1, mk.Point)
		}
	}
	return idx, bx, by
}

// inspectNearest describes the route vertex closest to the viewport center.
func (m Model) inspectNearest(w, h int) (string, bool) {
	path := m.state.Path
	if len(path) == 0 || !m.showPath {
		return "", false
	}
	best, idx := math.MaxInt, -1
	for i, p := range path {
		mx, my, ok := m.screenXYMicro(p, w, h)
		if !ok {
			continue
		}
		dx, dy := mx-w, my-h*2
		if d := dx*dx + dy*dy; d < best {
			best, idx = d, i
		}
	}
	if idx < 0 {
		return "", false
	}
	p := path[idx]
	done := path[:idx+1].Length()
	meta := []string{
		"vertex: " + itoa(idx+1) + " of " + itoa(len(path)),
		"position: " + p.String(),
		"walked: " + meters(done),
		"remaining: " + meters(path.Length()-done),
	}
	if end, ok := m.state.Marker(overlay.LabelEnd); ok {
		meta = append(meta, "to destination: "+meters(p.DistanceTo(end.Point))+" direct")
	}
	return strings.Join(meta, "\n"), true
}
