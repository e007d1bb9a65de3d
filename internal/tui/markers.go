package tui

import (
	list "github.com/charmbracelet/bubbles/list"

	"georoute/internal/geom"
)

type markerItem struct {
	label string
	point geom.GeoPoint
}

func (i markerItem) Title() string       { return markerGlyph(i.label) + "  " + i.label }
func (i markerItem) Description() string { return i.point.String() }
func (i markerItem) FilterValue() string { return i.label }

// refreshMarkers mirrors the overlay markers into the sidebar list, keeping
// the controller's order.
func (m *Model) refreshMarkers() {
	items := make([]list.Item, 0, len(m.state.Markers))
	for _, mk := range m.state.Markers {
		items = append(items, markerItem{label: mk.Label, point: mk.Point})
	}
	m.l.SetItems(items)
}
