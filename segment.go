package kite

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConditionFunc is a pure predicate over a segment's ExecutionContext that
// decides whether the segment runs.
type ConditionFunc func(*ExecutionContext) bool

// SegmentFunc is a segment's body: the unit of work performed when the
// segment is dispatched. It may suspend on I/O (process execution,
// artifact reads) via ctx.
type SegmentFunc func(ctx context.Context, execCtx *ExecutionContext) error

// Segment is an immutable descriptor for a named unit of work: its
// dependencies, the artifacts it consumes and produces, an optional
// condition guard, and the body that performs its effect.
//
// Segments are constructed once by the loader and never mutated during a
// run; a scheduler may invoke a given Segment's body at most once per run.
type Segment struct {
	name        string
	description string
	dependsOn   []string
	condition   ConditionFunc
	inputs      []string
	outputs     map[string]string
	timeout     time.Duration
	execute     SegmentFunc
}

// Name is the segment's unique identifier within a run.
func (s Segment) Name() string { return s.name }

// Description is the segment's optional human-readable summary.
func (s Segment) Description() string { return s.description }

// DependsOn lists the names of segments this segment depends on.
func (s Segment) DependsOn() []string { return append([]string(nil), s.dependsOn...) }

// Condition is the optional guard evaluated before dispatch, or nil.
func (s Segment) Condition() ConditionFunc { return s.condition }

// Inputs lists the artifact names this segment consumes.
func (s Segment) Inputs() []string { return append([]string(nil), s.inputs...) }

// Outputs maps artifact name to the workspace-relative path this segment
// promises to produce on success.
func (s Segment) Outputs() map[string]string {
	out := make(map[string]string, len(s.outputs))
	for k, v := range s.outputs {
		out[k] = v
	}
	return out
}

// Timeout is the segment's maximum wall-clock duration, or zero for none.
func (s Segment) Timeout() time.Duration { return s.timeout }

// Execute is the segment's body.
func (s Segment) Execute() SegmentFunc { return s.execute }

type segmentSpec struct {
	Name      string `validate:"required"`
	DependsOn []string
}

var validate = validator.New()

// SegmentBuilder constructs an immutable Segment. Callers chain the With*
// methods and finish with Build, which validates the result (a Streamy
// config-style builder pattern: fields default sensibly and Build is the
// single point where invalid descriptors are rejected).
type SegmentBuilder struct {
	seg Segment
}

// NewSegment starts building a segment with the given name.
func NewSegment(name string) *SegmentBuilder {
	return &SegmentBuilder{seg: Segment{name: name, outputs: make(map[string]string)}}
}

// WithDescription sets the segment's description.
func (b *SegmentBuilder) WithDescription(description string) *SegmentBuilder {
	b.seg.description = description
	return b
}

// DependsOn declares the names this segment depends on.
func (b *SegmentBuilder) DependsOn(names ...string) *SegmentBuilder {
	b.seg.dependsOn = append(b.seg.dependsOn, names...)
	return b
}

// WithCondition sets the segment's guard predicate.
func (b *SegmentBuilder) WithCondition(cond ConditionFunc) *SegmentBuilder {
	b.seg.condition = cond
	return b
}

// Consumes declares artifact names this segment reads as inputs.
func (b *SegmentBuilder) Consumes(artifacts ...string) *SegmentBuilder {
	b.seg.inputs = append(b.seg.inputs, artifacts...)
	return b
}

// Produces declares an artifact name and the workspace-relative path this
// segment promises to write it to on success.
func (b *SegmentBuilder) Produces(artifact, path string) *SegmentBuilder {
	b.seg.outputs[artifact] = path
	return b
}

// WithTimeout sets the segment's maximum wall-clock duration.
func (b *SegmentBuilder) WithTimeout(d time.Duration) *SegmentBuilder {
	b.seg.timeout = d
	return b
}

// Do sets the segment's body.
func (b *SegmentBuilder) Do(fn SegmentFunc) *SegmentBuilder {
	b.seg.execute = fn
	return b
}

// Build validates and returns the finished Segment.
func (b *SegmentBuilder) Build() (Segment, error) {
	spec := segmentSpec{Name: b.seg.name, DependsOn: b.seg.dependsOn}
	if err := validate.Struct(spec); err != nil {
		return Segment{}, fmt.Errorf("invalid segment: %w", err)
	}
	if b.seg.execute == nil {
		return Segment{}, fmt.Errorf("segment %q has no body", b.seg.name)
	}
	return b.seg, nil
}
