package tui

import (
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"georoute/internal/geom"
	"georoute/internal/overlay"
	"georoute/internal/pipeline"
)

// Pipeline is the part of *pipeline.Pipeline the screen drives.
type Pipeline interface {
	Events() <-chan pipeline.Event
	Destination() geom.GeoPoint
	SetDestination(geom.GeoPoint) error
	Refresh() bool
}

type Model struct {
	ctrl *overlay.Controller
	pipe Pipeline

	width  int
	height int

	showSidebar bool
	helpVisible bool

	// pan offset in cells, applied on top of the controller center
	offsetX int
	offsetY int

	status string

	// last snapshot taken from the controller
	state overlay.State

	// marker sidebar
	l list.Model

	// destination entry
	destMode bool
	ta       textarea.Model

	// layer visibility
	showMarkers bool
	showPath    bool

	inspectPopup string

	// hover state
	hovering    bool
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// waypoint table
	showWaypoints bool
	tbl           table.Model
}

func New(ctrl *overlay.Controller, pipe Pipeline) Model {
	m := Model{
		ctrl:        ctrl,
		pipe:        pipe,
		helpVisible: true,
		status:      "waiting for location",
		showMarkers: true,
		showPath:    true,
	}
	d := list.NewDefaultDelegate()
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Markers"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)

	m.ta = textarea.New()
	m.ta.Placeholder = "Destination as lat,lon or POINT(lon lat). Enter to route; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(3)

	m.tbl = table.New(table.WithColumns(waypointColumns), table.WithFocused(true))
	m.tbl.SetHeight(12)

	m.sync()
	return m
}

// overlayChangedMsg is delivered after the controller reports a mutation.
type overlayChangedMsg struct{}

// overlayDetachedMsg is delivered once the controller is detached.
type overlayDetachedMsg struct{}

type pipelineEventMsg pipeline.Event

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return overlayDetachedMsg{}
		}
		return overlayChangedMsg{}
	}
}

func waitForEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return pipelineEventMsg(e)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.ctrl.Changed()), waitForEvent(m.pipe.Events()))
}

// sync refreshes the cached snapshot and the views derived from it.
func (m *Model) sync() {
	m.state = m.ctrl.Snapshot()
	m.refreshMarkers()
	if m.showWaypoints {
		m.refreshWaypoints()
	}
}
