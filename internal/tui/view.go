package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
)

type layout struct {
	contentW int
	contentH int
	mapX     int
	mapY     int
	mapW     int
	mapH     int
}

// layout computes the map viewport; View and mouse handling share it.
func (m Model) layout() layout {
	lay := layout{
		contentW: max(10, m.width),
		contentH: max(4, m.height-headerHeight-footerHeight),
		mapY:     headerHeight,
	}
	lay.mapW = lay.contentW - 1
	if m.showSidebar {
		lay.mapW -= sidebarWidth
		lay.mapX = sidebarWidth + 1
	}
	lay.mapW = max(10, lay.mapW)
	lay.mapH = lay.contentH
	return lay
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	// Header
	coords := "N/A"
	if m.state.Center != nil {
		coords = m.state.Center.String()
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(" georoute ─ walking directions "),
		"  Current Coordinates: "+coords,
	)
	header = lipgloss.NewStyle().Width(lay.contentW).MaxHeight(headerHeight).Render(header)

	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	switch {
	case m.showWaypoints:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, box)
	case m.destMode:
		m.ta.SetWidth(lay.mapW)
		m.ta.SetHeight(min(lay.mapH, 3))
		prompt := dimStyle.Render("current destination: " + m.pipe.Destination().String())
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).
			Render(lipgloss.JoinVertical(lipgloss.Left, prompt, m.ta.View()))
	default:
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).Render(m.renderMap(lay.mapW, lay.mapH))
	}

	popup := ""
	if m.inspectPopup != "" && !m.showWaypoints {
		w := max(20, min(48, lay.contentW/2))
		box := boxStyle.MaxWidth(w).Render(m.inspectPopup)
		popup = lipgloss.Place(lay.contentW, lipgloss.Height(box), lipgloss.Left, lipgloss.Center, box)
	}

	body := mapView
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	// Footer / help
	help := m.renderHelp()
	status := dimStyle.Render(" " + m.status + " ")
	hover := ""
	if m.hoverHasGeo {
		hover = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, status, help)
	spacerW := max(0, lay.contentW-lipgloss.Width(left)-lipgloss.Width(hover))
	right := lipgloss.Place(spacerW+lipgloss.Width(hover), 1, lipgloss.Right, lipgloss.Center, hover)
	footer := lipgloss.NewStyle().Width(lay.contentW).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(lay.contentW).Height(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"c center",
		"Tab markers",
		"p destination",
		"r reroute",
		"w waypoints",
		"i inspect",
		"1/2 layers",
		"h help",
		"q quit",
	}
	return dimStyle.Render(" " + strings.Join(keys, "  "))
}
