// Package gitcheckout is an example domain plugin: a segment body that
// clones or updates a git working copy. It demonstrates how a domain
// collaborator outside the core packages hangs a kite.SegmentFunc off its
// own library without the scheduler knowing anything about git.
package gitcheckout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	kite "github.com/kiteci/kite"
)

// Options configures one checkout. URL is required; Destination is
// workspace-relative and defaults to the repository name derived from URL.
type Options struct {
	URL         string
	Branch      string
	Depth       int
	Destination string
}

func (o Options) destination() string {
	if o.Destination != "" {
		return o.Destination
	}
	name := strings.TrimSuffix(filepath.Base(o.URL), ".git")
	return name
}

func (o Options) cloneOptions() *git.CloneOptions {
	opts := &git.CloneOptions{URL: o.URL}
	if o.Depth > 0 {
		opts.Depth = o.Depth
	}
	if o.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(o.Branch)
		opts.SingleBranch = true
	}
	return opts
}

// state is the working copy's condition relative to Options, decided by a
// read-only inspection before any mutation.
type state int

const (
	stateMissing state = iota
	stateNotGit
	stateDrifted
	stateSatisfied
)

func inspect(path string, opts Options) (state, string) {
	info, err := os.Stat(path)
	if err != nil {
		return stateMissing, ""
	}
	if !info.IsDir() {
		return stateNotGit, ""
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return stateNotGit, ""
	}

	var currentBranch, actualURL string
	if head, err := repo.Head(); err == nil {
		currentBranch = head.Name().Short()
	}
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		actualURL = remote.Config().URLs[0]
	}

	if actualURL != "" && actualURL != opts.URL {
		return stateDrifted, currentBranch
	}
	if opts.Branch != "" && currentBranch != opts.Branch {
		return stateDrifted, currentBranch
	}
	return stateSatisfied, currentBranch
}

// Body returns the segment function that checks out opts.URL into the
// segment's workspace, cloning on first run and recloning if the working
// copy has drifted from the requested URL or branch. It is satisfied, not
// reapplied, when the existing checkout already matches.
func Body(opts Options) kite.SegmentFunc {
	return func(ctx context.Context, execCtx *kite.ExecutionContext) error {
		if opts.URL == "" {
			return fmt.Errorf("gitcheckout: URL is required")
		}

		dest := filepath.Join(execCtx.Workspace(), opts.destination())
		logger := execCtx.Logger()

		current, branch := inspect(dest, opts)

		switch current {
		case stateSatisfied:
			if logger != nil {
				logger.Info(fmt.Sprintf("%s already at %s (branch %s)", opts.URL, dest, branch))
			}
			return nil

		case stateNotGit:
			if logger != nil {
				logger.Warn(fmt.Sprintf("%s exists but is not a git repository, replacing", dest))
			}
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("gitcheckout: remove %s: %w", dest, err)
			}

		case stateDrifted:
			if logger != nil {
				logger.Warn(fmt.Sprintf("%s has drifted from %s, recloning", dest, opts.URL))
			}
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("gitcheckout: remove %s: %w", dest, err)
			}

		case stateMissing:
			if logger != nil {
				logger.Info(fmt.Sprintf("cloning %s into %s", opts.URL, dest))
			}
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("gitcheckout: create parent of %s: %w", dest, err)
		}

		if _, err := git.PlainCloneContext(ctx, dest, false, opts.cloneOptions()); err != nil {
			if logger != nil {
				logger.Error(fmt.Sprintf("clone failed: %v", err))
			}
			return fmt.Errorf("gitcheckout: clone %s: %w", opts.URL, err)
		}

		if logger != nil {
			logger.Info(fmt.Sprintf("cloned %s", opts.URL))
		}
		return nil
	}
}

// Segment builds a complete, ready-to-schedule Segment named name that
// checks out opts.URL. Callers needing dependsOn/condition/produces beyond
// the checkout itself should use Body directly with kite.NewSegment.
func Segment(name string, opts Options) (kite.Segment, error) {
	return kite.NewSegment(name).
		WithDescription(fmt.Sprintf("checkout %s", opts.URL)).
		Produces("checkout", opts.destination()).
		Do(Body(opts)).
		Build()
}
