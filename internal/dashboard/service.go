package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	kite "github.com/kiteci/kite"
)

// Service bridges a running scheduler's events into a Bubbletea program's
// message loop, so a CLI can drive the dashboard from the goroutine running
// the ride while the program itself owns the terminal.
type Service struct {
	program *tea.Program
}

// NewService creates (but does not start) a Bubbletea program rendering
// model and returns a Service for reporting segment events into it; Run
// starts the program.
func NewService(model Model) *Service {
	return &Service{program: tea.NewProgram(model)}
}

// Run blocks until the dashboard program exits, returning the final model.
func (s *Service) Run() (tea.Model, error) {
	return s.program.Run()
}

// SegmentStarted reports that name began executing.
func (s *Service) SegmentStarted(name string) {
	s.program.Send(SegmentStartMsg{Name: name, Time: time.Now()})
}

// SegmentFinished reports a segment's terminal result.
func (s *Service) SegmentFinished(result kite.SegmentResult) {
	s.program.Send(SegmentResultMsg{Result: result})
}

// Finished reports the scheduler's final aggregated result.
func (s *Service) Finished(result kite.SchedulerResult) {
	s.program.Send(FinishedMsg{Result: result})
}
