package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	kite "github.com/kiteci/kite"
)

// View renders the dashboard's current state.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Kite • %s", m.rideName)))

	bar := newProgressBar(m.total)
	sections = append(sections, sectionStyle.Render("Progress"), bar.View(m.completed))

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Segments"), m.renderSegments())
	}

	if summary := m.renderSummary(); strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSegments() string {
	var lines []string
	for _, name := range m.order {
		res, done := m.results[name]
		icon := m.statusIcon(name, done, res)
		line := fmt.Sprintf(" %s %s", icon, name)
		if done {
			if strings.TrimSpace(res.Message) != "" {
				line = fmt.Sprintf("%s — %s", line, res.Message)
			}
			if res.Duration > 0 {
				line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusIcon(name string, done bool, res kite.SegmentResult) string {
	if !done {
		if m.states[name] == stateRunning {
			return runningStyle.Render("⏳")
		}
		return pendingStyle.Render("…")
	}

	switch res.Status {
	case kite.StatusSuccess:
		return successStyle.Render("✓")
	case kite.StatusFailure:
		return failureStyle.Render("✗")
	case kite.StatusSkipped:
		return skippedStyle.Render("⊘")
	case kite.StatusTimeout:
		return failureStyle.Render("⏱")
	default:
		return pendingStyle.Render("…")
	}
}

func (m Model) renderSummary() string {
	var lines []string
	if m.total > 0 {
		lines = append(lines, fmt.Sprintf("Segments: %d/%d completed", m.completed, m.total))
	}

	switch {
	case m.cancelled:
		lines = append(lines, "Run cancelled")
	case m.final != nil:
		s := m.final.Summary()
		lines = append(lines, fmt.Sprintf(
			"success=%d failed=%d skipped=%d timeout=%d wall=%s sequential=%s",
			s.Success, s.Failed, s.Skipped, s.Timeout,
			s.WallClock.Truncate(10*time.Millisecond),
			s.SequentialEquivalent.Truncate(10*time.Millisecond),
		))
	case m.finished:
		lines = append(lines, "Run finished")
	}

	return strings.Join(lines, "\n")
}
