// Package scheduler implements Kite's parallel scheduler: it realises a
// ride's flow into a dispatch plan, enforces the ride's concurrency bound,
// gates each segment on its condition and dependencies, runs segment bodies
// through a concrete ExecutionContext, and aggregates results.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	kite "github.com/kiteci/kite"
	"github.com/kiteci/kite/internal/artifacts"
	"github.com/kiteci/kite/internal/graph"
	"github.com/kiteci/kite/internal/seglog"
	"github.com/kiteci/kite/pkg/kiteerrors"
)

// Options configures one scheduler run.
type Options struct {
	// Workspace is the absolute path process bodies and artifact paths are
	// resolved against.
	Workspace string
	// LogDir is the directory per-segment log files are written to. It
	// defaults to "<Workspace>/.kite/logs" when empty.
	LogDir string
	// Console, if non-nil, mirrors every segment's log lines.
	Console *seglog.Console
	// Env overlays the parent process environment for every segment body.
	Env map[string]string
	// Metrics, if non-nil, records per-run Prometheus observations.
	Metrics *Metrics
	// Observer, if non-nil, is notified of segment lifecycle events as the
	// run progresses — a live dashboard's hook into the scheduler.
	Observer Observer
}

// Observer receives segment lifecycle notifications during a run.
type Observer interface {
	SegmentStarted(name string)
	SegmentFinished(result kite.SegmentResult)
}

// Scheduler runs rides against a fixed set of loaded segments.
type Scheduler struct {
	opts   Options
	loaded map[string]kite.Segment
	logDir string
}

// New builds a Scheduler over loadedSegments, keyed by segment name.
func New(loadedSegments map[string]kite.Segment, opts Options) *Scheduler {
	logDir := opts.LogDir
	if logDir == "" {
		logDir = filepath.Join(opts.Workspace, ".kite", "logs")
	}
	return &Scheduler{opts: opts, loaded: loadedSegments, logDir: logDir}
}

// run carries the mutable state of one Execute call.
type run struct {
	sched    *Scheduler
	ride     kite.Ride
	ctx      context.Context
	registry *artifacts.Registry
	sem      *semaphore.Weighted

	mu      sync.Mutex
	results map[string]kite.SegmentResult
}

// Execute runs ride to completion and returns a SchedulerResult recording
// every segment ride.Flow references. ctx governs ride-level cancellation:
// on cancellation, in-flight segment bodies are cancelled and marked
// FAILURE, and any segment not yet started is marked SKIPPED.
func (s *Scheduler) Execute(ctx context.Context, ride kite.Ride) kite.SchedulerResult {
	start := time.Now()

	r := &run{
		sched:    s,
		ride:     ride,
		ctx:      ctx,
		registry: artifacts.NewRegistry(),
		sem:      semaphore.NewWeighted(int64(ride.MaxConcurrency())),
		results:  make(map[string]kite.SegmentResult),
	}

	resolved, unknown := r.resolveFlowSegments()
	for _, name := range unknown {
		r.setResult(kite.SegmentResult{
			Segment: name,
			Status:  kite.StatusSkipped,
			Err:     kiteerrors.NewSchedulerError(kiteerrors.UnknownSegment, name, nil),
			Message: "Skipped: unknown segment",
		})
	}

	levels, err := r.layeredPlan(resolved)
	if err != nil {
		for name := range resolved {
			r.setResult(kite.SegmentResult{
				Segment: name,
				Status:  kite.StatusSkipped,
				Err:     err,
				Message: fmt.Sprintf("Skipped: invalid graph (%v)", err),
			})
		}
		return r.finish(start)
	}

	for _, level := range levels {
		for range level {
			s.opts.Metrics.recordDispatch(ride.Name())
		}
		r.dispatchLevel(level)
	}

	return r.finish(start)
}

// resolveFlowSegments looks up every distinct name ride.flow references in
// the scheduler's loaded set, returning the resolved subset and the names
// that did not resolve.
func (r *run) resolveFlowSegments() (map[string]kite.Segment, []string) {
	resolved := make(map[string]kite.Segment)
	var unknown []string
	seen := make(map[string]bool)

	for _, step := range r.ride.Flow() {
		for _, name := range step.Segments() {
			if seen[name] {
				continue
			}
			seen[name] = true
			if seg, ok := r.sched.loaded[name]; ok {
				resolved[name] = seg
			} else {
				unknown = append(unknown, name)
			}
		}
	}

	return resolved, unknown
}

// layeredPlan builds the segment graph over resolved, validates it, and
// merges the graph's level decomposition with the ride's flow ordering:
// each segment's dispatch level starts at the max of its flow-step index
// and its graph-level index, and is then raised above the level of every
// dependency. A segment is not raised past a flow predecessor that its
// own dependencies pushed to a later level.
func (r *run) layeredPlan(resolved map[string]kite.Segment) ([][]string, error) {
	nodes := make([]graph.Node, 0, len(resolved))
	for name, seg := range resolved {
		nodes = append(nodes, graph.Node{Name: name, DependsOn: seg.DependsOn()})
	}

	g, err := graph.Build(nodes)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	graphLevels, err := g.SortByLevels()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]int, len(resolved))
	for levelIdx, level := range graphLevels {
		for _, name := range level {
			merged[name] = levelIdx
		}
	}

	flowIndex := make(map[string]int, len(resolved))
	for stepIdx, step := range r.ride.Flow() {
		for _, name := range step.Segments() {
			if _, ok := resolved[name]; !ok {
				continue
			}
			if _, set := flowIndex[name]; !set {
				flowIndex[name] = stepIdx
			}
		}
	}
	for name, idx := range flowIndex {
		if idx > merged[name] {
			merged[name] = idx
		}
	}
	for _, level := range graphLevels {
		for _, name := range level {
			for _, dep := range resolved[name].DependsOn() {
				if merged[dep] >= merged[name] {
					merged[name] = merged[dep] + 1
				}
			}
		}
	}

	maxLevel := 0
	for _, lvl := range merged {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	levels := make([][]string, maxLevel+1)
	for name, lvl := range merged {
		levels[lvl] = append(levels[lvl], name)
	}
	for _, level := range levels {
		sort.Strings(level)
	}

	var out [][]string
	for _, level := range levels {
		if len(level) > 0 {
			out = append(out, level)
		}
	}
	return out, nil
}

// dispatchLevel runs every segment in level concurrently, bounded by the
// ride's concurrency permit, and blocks until every segment in the level
// has a terminal result.
func (r *run) dispatchLevel(level []string) {
	g, _ := errgroup.WithContext(r.ctx)
	for _, name := range level {
		name := name
		g.Go(func() error {
			r.runSegment(name)
			return nil
		})
	}
	_ = g.Wait()
}

// runSegment gates and, if permitted, executes one segment's body, always
// writing a terminal SegmentResult before returning.
func (r *run) runSegment(name string) {
	seg := r.sched.loaded[name]

	if r.ctx.Err() != nil {
		r.setResult(kite.SegmentResult{Segment: name, Status: kite.StatusSkipped, Message: "Skipped: run cancelled"})
		return
	}

	upstream := make(map[string]bool)
	for pending := seg.DependsOn(); len(pending) > 0; {
		dep := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !upstream[dep] {
			upstream[dep] = true
			pending = append(pending, r.sched.loaded[dep].DependsOn()...)
		}
	}
	var visible []string
	for _, input := range seg.Inputs() {
		if producer, ok := r.registry.Producer(input); ok && upstream[producer] {
			visible = append(visible, input)
		}
	}
	view := artifacts.NewView(r.registry, visible)
	gateCtx := kite.NewExecutionContext(r.sched.opts.Workspace, r.sched.opts.Env, nil, view)

	if cond := seg.Condition(); cond != nil && !cond(gateCtx) {
		r.setResult(kite.SegmentResult{Segment: name, Status: kite.StatusSkipped, Message: kite.SkipReasonCondition})
		return
	}

	for _, dep := range seg.DependsOn() {
		depResult, ok := r.getResult(dep)
		if !ok || depResult.Status.IsFailed() || depResult.Status == kite.StatusSkipped {
			r.setResult(kite.SegmentResult{Segment: name, Status: kite.StatusSkipped, Message: kite.SkipReasonDependency})
			return
		}
	}

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.setResult(kite.SegmentResult{Segment: name, Status: kite.StatusSkipped, Message: "Skipped: run cancelled"})
		return
	}
	defer r.sem.Release(1)

	if r.sched.opts.Observer != nil {
		r.sched.opts.Observer.SegmentStarted(name)
	}

	r.sched.opts.Metrics.beginBody()
	result := r.execute(name, seg, view)
	r.sched.opts.Metrics.endBody(result.Status.String(), result.Duration.Seconds())

	if r.sched.opts.Observer != nil {
		r.sched.opts.Observer.SegmentFinished(result)
	}
	r.setResult(result)
}

// execute opens the segment's logger, builds its ExecutionContext, and
// invokes its body, converting the outcome into a terminal SegmentResult.
func (r *run) execute(name string, seg kite.Segment, view artifacts.View) kite.SegmentResult {
	logger, err := seglog.Open(r.sched.logDir, name, r.sched.opts.Console)
	if err != nil {
		return kite.SegmentResult{Segment: name, Status: kite.StatusFailure, Err: err, Message: "Failed: could not open log"}
	}
	defer logger.Close()

	execCtx := kite.NewExecutionContext(r.sched.opts.Workspace, r.sched.opts.Env, logger, view)

	bodyCtx := r.ctx
	var cancel context.CancelFunc
	if seg.Timeout() > 0 {
		bodyCtx, cancel = context.WithTimeout(r.ctx, seg.Timeout())
		defer cancel()
	}

	started := time.Now()
	bodyErr := seg.Execute()(bodyCtx, execCtx)
	duration := time.Since(started)

	switch {
	case bodyErr == nil:
		for artifact, relPath := range seg.Outputs() {
			path := filepath.Join(r.sched.opts.Workspace, relPath)
			if err := r.registry.DeclareOutput(name, artifact, path); err != nil {
				return kite.SegmentResult{Segment: name, Status: kite.StatusFailure, Err: err, Message: err.Error(), Duration: duration}
			}
		}
		return kite.SegmentResult{Segment: name, Status: kite.StatusSuccess, Duration: duration}

	case errors.Is(bodyCtx.Err(), context.DeadlineExceeded) && seg.Timeout() > 0:
		err := kiteerrors.NewSchedulerError(kiteerrors.Timeout, name, bodyErr)
		return kite.SegmentResult{Segment: name, Status: kite.StatusTimeout, Err: err, Message: fmt.Sprintf("Timed out after %s", seg.Timeout()), Duration: duration}

	case errors.Is(bodyErr, context.Canceled) || r.ctx.Err() != nil:
		err := kiteerrors.NewSchedulerError(kiteerrors.Cancelled, name, bodyErr)
		return kite.SegmentResult{Segment: name, Status: kite.StatusFailure, Err: err, Message: "Failed: run cancelled", Duration: duration}

	default:
		err := kiteerrors.NewSchedulerError(kiteerrors.BodyError, name, bodyErr)
		return kite.SegmentResult{Segment: name, Status: kite.StatusFailure, Err: err, Message: bodyErr.Error(), Duration: duration}
	}
}

func (r *run) setResult(res kite.SegmentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.Segment] = res
}

func (r *run) getResult(name string) (kite.SegmentResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[name]
	return res, ok
}

func (r *run) finish(start time.Time) kite.SchedulerResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := kite.NewSchedulerResult()
	out.RunID = uuid.NewString()
	out.Duration = time.Since(start)
	for name, res := range r.results {
		out.Results[name] = res
	}
	return out
}
