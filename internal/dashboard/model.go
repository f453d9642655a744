// Package dashboard implements a live bubbletea view over a scheduler run:
// a progress bar, a per-segment status list, and a closing summary.
package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	kite "github.com/kiteci/kite"
)

// segmentState is the dashboard's own view of a segment's progress — wider
// than kite.SegmentStatus, since it also tracks "running", which has no
// terminal SegmentResult yet.
type segmentState int

const (
	statePending segmentState = iota
	stateRunning
	stateDone
)

// Model is the Bubbletea state for Kite's live run dashboard.
type Model struct {
	rideName  string
	order     []string
	states    map[string]segmentState
	results   map[string]kite.SegmentResult
	total     int
	completed int
	finished  bool
	cancelled bool
	final     *kite.SchedulerResult
}

// NewModel constructs a dashboard model tracking segmentNames for ride.
func NewModel(rideName string, segmentNames []string) Model {
	m := Model{
		rideName: rideName,
		order:    append([]string(nil), segmentNames...),
		states:   make(map[string]segmentState, len(segmentNames)),
		results:  make(map[string]kite.SegmentResult, len(segmentNames)),
		total:    len(segmentNames),
	}
	for _, name := range segmentNames {
		m.states[name] = statePending
	}
	return m
}

// Init schedules a single tick message 100ms after the program starts.
func (m Model) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalSegments returns the number of segments tracked by the model.
func (m Model) TotalSegments() int { return m.total }

// CompletedSegments returns the number of segments with a terminal result.
func (m Model) CompletedSegments() int { return m.completed }

// IsFinished reports whether the run has reached a terminal state.
func (m Model) IsFinished() bool { return m.finished }

func (m *Model) ensure(name string) {
	if name == "" {
		return
	}
	if _, ok := m.states[name]; !ok {
		m.states[name] = statePending
		m.order = append(m.order, name)
		m.total++
	}
}
