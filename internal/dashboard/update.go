package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and advances model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case SegmentStartMsg:
		m.ensure(msg.Name)
		m.states[msg.Name] = stateRunning
		return m, nil
	case SegmentResultMsg:
		name := msg.Result.Segment
		m.ensure(name)
		if m.states[name] != stateDone {
			m.completed++
		}
		m.states[name] = stateDone
		m.results[name] = msg.Result
		if m.completed >= m.total {
			m.finished = true
		}
		return m, nil
	case FinishedMsg:
		result := msg.Result
		m.final = &result
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
