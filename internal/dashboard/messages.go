package dashboard

import (
	"time"

	kite "github.com/kiteci/kite"
)

// SegmentStartMsg indicates a segment has started executing.
type SegmentStartMsg struct {
	Name string
	Time time.Time
}

// SegmentResultMsg reports that a segment reached a terminal status.
type SegmentResultMsg struct {
	Result kite.SegmentResult
}

// FinishedMsg carries the scheduler's final result once every segment in
// the ride has a terminal status.
type FinishedMsg struct {
	Result kite.SchedulerResult
}

type tickMsg struct{}
