// Package loader reads a ride descriptor from a YAML file and builds the
// in-memory Segment and Ride values a scheduler runs. It exists as a
// stand-in for Kite's script compiler: every segment it produces runs its
// declared command through the shell, rather than an arbitrary body.
package loader

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	kite "github.com/kiteci/kite"
)

var validate = validator.New()

// flowStepSpec decodes a YAML flow entry, which is either a bare segment
// name (a Single step) or a list of names (a Parallel step).
type flowStepSpec struct {
	names []string
}

func (f *flowStepSpec) UnmarshalYAML(value *yaml.Node) error {
	var single string
	if err := value.Decode(&single); err == nil {
		f.names = []string{single}
		return nil
	}

	var group []string
	if err := value.Decode(&group); err != nil {
		return fmt.Errorf("flow step must be a segment name or a list of names: %w", err)
	}
	f.names = group
	return nil
}

type segmentSpec struct {
	Name      string            `yaml:"name" validate:"required"`
	DependsOn []string          `yaml:"dependsOn"`
	Command   string            `yaml:"command" validate:"required"`
	Consumes  []string          `yaml:"consumes"`
	Produces  map[string]string `yaml:"produces"`
	Timeout   string            `yaml:"timeout"`
}

type rideSpec struct {
	Name           string         `yaml:"name" validate:"required"`
	MaxConcurrency int            `yaml:"maxConcurrency" validate:"required,gt=0"`
	Segments       []segmentSpec  `yaml:"segments" validate:"required,dive"`
	Flow           []flowStepSpec `yaml:"flow" validate:"required"`
}

// Document is the decoded result of loading a ride file: its segments,
// keyed by name, and the ride that sequences them.
type Document struct {
	Segments map[string]kite.Segment
	Ride     kite.Ride
}

// Load reads and parses the ride descriptor at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ride file %s: %w", path, err)
	}

	var spec rideSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse ride file %s: %w", path, err)
	}
	if err := validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid ride file %s: %w", path, err)
	}

	segments := make(map[string]kite.Segment, len(spec.Segments))
	for _, s := range spec.Segments {
		seg, err := buildSegment(s)
		if err != nil {
			return nil, fmt.Errorf("ride file %s: %w", path, err)
		}
		segments[seg.Name()] = seg
	}

	flow := make([]kite.FlowStep, 0, len(spec.Flow))
	for _, step := range spec.Flow {
		if len(step.names) == 1 {
			flow = append(flow, kite.Single(step.names[0]))
		} else {
			flow = append(flow, kite.Parallel(step.names...))
		}
	}

	ride, err := kite.NewRide(spec.Name, spec.MaxConcurrency, flow...)
	if err != nil {
		return nil, fmt.Errorf("ride file %s: %w", path, err)
	}

	return &Document{Segments: segments, Ride: ride}, nil
}

func buildSegment(s segmentSpec) (kite.Segment, error) {
	b := kite.NewSegment(s.Name).DependsOn(s.DependsOn...).Consumes(s.Consumes...)
	for artifact, path := range s.Produces {
		b = b.Produces(artifact, path)
	}

	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return kite.Segment{}, fmt.Errorf("segment %q: invalid timeout %q: %w", s.Name, s.Timeout, err)
		}
		b = b.WithTimeout(d)
	}

	command := s.Command
	b = b.Do(func(ctx context.Context, execCtx *kite.ExecutionContext) error {
		_, err := execCtx.Shell(ctx, command, 0)
		return err
	})

	return b.Build()
}
