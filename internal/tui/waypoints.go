package tui

import (
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
)

var waypointColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "lat", Width: 11},
	{Title: "lon", Width: 11},
	{Title: "leg m", Width: 8},
	{Title: "total m", Width: 9},
}

// refreshWaypoints rebuilds the table rows from the current route.
func (m *Model) refreshWaypoints() {
	path := m.state.Path
	if len(path) == 0 {
		m.showWaypoints = false
		m.tbl.SetRows(nil)
		m.status = "no route to tabulate"
		return
	}
	rows := make([]table.Row, 0, len(path))
	total := 0.0
	for i, p := range path {
		leg := 0.0
		if i > 0 {
			leg = path[i-1].DistanceTo(p)
		}
		total += leg
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(p.Lat, 'f', 6, 64),
			strconv.FormatFloat(p.Lon, 'f', 6, 64),
			strconv.FormatFloat(leg, 'f', 0, 64),
			strconv.FormatFloat(total, 'f', 0, 64),
		})
	}
	m.tbl.SetRows(rows)
}
