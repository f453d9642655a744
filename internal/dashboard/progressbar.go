package dashboard

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// progressBar renders overall run completion.
type progressBar struct {
	bar   progress.Model
	total int
}

func newProgressBar(total int) progressBar {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return progressBar{bar: bar, total: total}
}

func (p progressBar) View(completed int) string {
	ratio := 0.0
	if p.total > 0 {
		ratio = math.Min(1.0, float64(completed)/float64(p.total))
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", completed, p.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(ratio))
}
