package kite

import "fmt"

// FlowStep is one entry in a Ride's flow: either a single segment or a
// set of segments meant to run simultaneously.
type FlowStep struct {
	segments []string
}

// Single returns a flow step naming one segment.
func Single(segment string) FlowStep {
	return FlowStep{segments: []string{segment}}
}

// Parallel returns a flow step naming a set of segments to run
// simultaneously.
func Parallel(segments ...string) FlowStep {
	return FlowStep{segments: append([]string(nil), segments...)}
}

// Segments returns the names covered by this flow step, in authored order.
func (f FlowStep) Segments() []string { return append([]string(nil), f.segments...) }

// IsParallel reports whether this step names more than one segment.
func (f FlowStep) IsParallel() bool { return len(f.segments) > 1 }

// Ride is an immutable composition plan over segments: a concurrency bound
// and an ordered sequence of flow steps.
type Ride struct {
	name           string
	maxConcurrency int
	flow           []FlowStep
}

// Name is the ride's identifier.
func (r Ride) Name() string { return r.name }

// MaxConcurrency is the maximum number of segment bodies the scheduler may
// run simultaneously for this ride.
func (r Ride) MaxConcurrency() int { return r.maxConcurrency }

// Flow is the ride's ordered sequence of steps.
func (r Ride) Flow() []FlowStep { return append([]FlowStep(nil), r.flow...) }

// NewRide constructs a Ride. maxConcurrency must be positive.
func NewRide(name string, maxConcurrency int, flow ...FlowStep) (Ride, error) {
	if name == "" {
		return Ride{}, fmt.Errorf("ride name must not be empty")
	}
	if maxConcurrency <= 0 {
		return Ride{}, fmt.Errorf("ride %q: maxConcurrency must be positive, got %d", name, maxConcurrency)
	}
	return Ride{name: name, maxConcurrency: maxConcurrency, flow: append([]FlowStep(nil), flow...)}, nil
}
