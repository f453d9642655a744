// Package artifacts implements Kite's artifact registry: a map from
// artifact name to filesystem path, written once per producing segment and
// readable by any downstream consumer whose declared inputs resolve
// through a successful upstream producer.
package artifacts

import (
	"sync"

	"github.com/kiteci/kite/pkg/kiteerrors"
)

type entry struct {
	path    string
	segment string
}

// Registry records artifact declarations for a single scheduler run.
//
// Writes are single-writer per artifact name (the producing segment's own
// task); reads may happen concurrently from any number of sibling or
// downstream segment tasks once the producer's completion barrier has
// passed.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty artifact registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// DeclareOutput records that segment produced artifact at path. A second
// declaration of the same (name, path) pair is a no-op; a second
// declaration with a different path is an ArtifactCollision.
func (r *Registry) DeclareOutput(segment, artifact, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[artifact]; ok {
		if existing.path == path {
			return nil
		}
		return &kiteerrors.ArtifactError{
			Kind:     kiteerrors.ArtifactCollision,
			Segment:  segment,
			Artifact: artifact,
			Existing: existing.path,
			Attempt:  path,
		}
	}

	r.entries[artifact] = entry{path: path, segment: segment}
	return nil
}

// Path returns the path produced for artifact, and whether it exists at all
// in the registry (regardless of which segment produced it or whether the
// caller is entitled to see it — entitlement is enforced by View).
func (r *Registry) Path(artifact string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[artifact]
	return e.path, ok
}

// Producer returns the name of the segment that declared artifact.
func (r *Registry) Producer(artifact string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[artifact]
	return e.segment, ok
}

// View is the read-only lookup handed to an executing segment's body,
// scoped to the artifact names it declared as inputs.
type View interface {
	Get(artifact string) (string, bool)
}

// view implements View by filtering a Registry down to a fixed set of
// names visible to one consumer.
type view struct {
	registry *Registry
	visible  map[string]struct{}
}

// NewView builds a consumer-scoped view over registry, permitting lookups
// only for the artifact names in visible.
func NewView(registry *Registry, visible []string) View {
	set := make(map[string]struct{}, len(visible))
	for _, name := range visible {
		set[name] = struct{}{}
	}
	return &view{registry: registry, visible: set}
}

// Get returns the path declared for artifact, or no-value if artifact was
// not declared as an input for this view, or no producer has declared it.
func (v *view) Get(artifact string) (string, bool) {
	if _, ok := v.visible[artifact]; !ok {
		return "", false
	}
	return v.registry.Path(artifact)
}
