package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"georoute/internal/geom"
	"georoute/internal/pipeline"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			lay := m.layout()
			m.l.SetSize(sidebarWidth-2, lay.mapH-2)
		}
	case overlayChangedMsg:
		m.sync()
		return m, waitForChange(m.ctrl.Changed())
	case overlayDetachedMsg:
		return m, tea.Quit
	case pipelineEventMsg:
		m.applyEvent(pipeline.Event(msg))
		return m, waitForEvent(m.pipe.Events())
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.destMode {
			return m.updateDestination(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.showMarkers = !m.showMarkers
			m.status = fmt.Sprintf("markers: %v", m.showMarkers)
		case "2":
			m.showPath = !m.showPath
			m.status = fmt.Sprintf("route: %v", m.showPath)
		case "+", "=":
			m.zoomBy(1)
		case "-", "_":
			m.zoomBy(-1)
		case "c":
			m.offsetX, m.offsetY = 0, 0
			m.status = "recentered"
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshMarkers()
				m.l.SetSize(sidebarWidth-2, m.layout().mapH-2)
			}
		case "p":
			m.destMode = true
			m.ta.SetValue("")
			m.ta.Focus()
			m.status = "destination: " + m.pipe.Destination().String()
		case "r":
			if m.pipe.Refresh() {
				m.status = "refreshing route"
			} else {
				m.status = "no location yet"
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "w":
			m.showWaypoints = !m.showWaypoints
			if m.showWaypoints {
				m.refreshWaypoints()
			}
		case "i":
			if m.inspectPopup != "" {
				m.inspectPopup = ""
				break
			}
			lay := m.layout()
			if info, ok := m.inspectNearest(lay.mapW, lay.mapH); ok {
				m.inspectPopup = info
				m.status = "inspect popup"
			} else {
				m.status = "no route to inspect"
			}
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(markerItem); ok {
					m.panTo(it.point)
				}
			}
		case "esc":
			m.inspectPopup = ""
		case "up":
			m.offsetY += 1
		case "down":
			m.offsetY -= 1
		case "left":
			m.offsetX += 2
		case "right":
			m.offsetX -= 2
		}
		if m.showWaypoints {
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
	case tea.MouseMsg:
		lay := m.layout()
		cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
		if cx >= 0 && cx < lay.mapW && cy >= 0 && cy < lay.mapH {
			m.hovering = true
			if lon, lat, ok := m.cellToLonLat(cx, cy, lay.mapW, lay.mapH); ok {
				m.hoverHasGeo = true
				m.hoverLon, m.hoverLat = lon, lat
			} else {
				m.hoverHasGeo = false
			}
			_, m.hoverMicX, m.hoverMicY = m.nearestVertex(cx*2, cy*4, lay.mapW, lay.mapH)
		} else {
			m.hovering = false
			m.hoverHasGeo = false
		}
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateDestination(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.destMode = false
		m.ta.Blur()
		m.status = "view mode"
		return m, nil
	case "enter":
		s := strings.TrimSpace(m.ta.Value())
		if s == "" {
			m.status = "destination: empty"
			return m, nil
		}
		p, err := geom.ParsePoint(s)
		if err != nil {
			m.status = "destination error: " + err.Error()
			return m, nil
		}
		if err := m.pipe.SetDestination(p); err != nil {
			m.status = "destination error: " + err.Error()
			return m, nil
		}
		m.destMode = false
		m.ta.Blur()
		m.status = "destination set to " + p.String()
		m.sync()
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m *Model) zoomBy(delta float64) {
	if m.state.Center == nil {
		m.status = "no location yet"
		return
	}
	z := m.state.Zoom + delta
	if z < 0 || z > maxZoom {
		return
	}
	// keep the visual pan roughly in place across zoom levels
	if delta > 0 {
		m.offsetX, m.offsetY = m.offsetX*2, m.offsetY*2
	} else {
		m.offsetX, m.offsetY = m.offsetX/2, m.offsetY/2
	}
	m.ctrl.SetZoom(z)
	m.sync()
	m.status = fmt.Sprintf("zoom: %.0f", z)
}

// panTo shifts the view so p sits in the middle of the map.
func (m *Model) panTo(p geom.GeoPoint) {
	if m.state.Center == nil {
		return
	}
	cx, cy := worldPixel(*m.state.Center, m.state.Zoom)
	px, py := worldPixel(p, m.state.Zoom)
	m.offsetX = -int((px - cx) / 2)
	m.offsetY = -int((py - cy) / 4)
	m.status = "showing " + p.String()
}

func (m *Model) applyEvent(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventFetching:
		m.status = "routing..."
	case pipeline.EventRouteApplied:
		m.status = fmt.Sprintf("route: %s, %d points", meters(e.Length), e.Points)
	case pipeline.EventNoRoute:
		m.status = "no route found"
	case pipeline.EventRouteFailed:
		m.status = "route error: " + e.Err.Error()
	case pipeline.EventDestination:
		m.status = "destination set to " + e.Point.String()
	}
}
