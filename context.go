package kite

import (
	"context"
	"os"
	"time"

	"github.com/kiteci/kite/internal/artifacts"
	"github.com/kiteci/kite/internal/procexec"
	"github.com/kiteci/kite/internal/seglog"
)

// ExecutionContext is the per-segment capability bundle a scheduler builds
// at dispatch time and passes to a segment's body. It is released once the
// body returns.
type ExecutionContext struct {
	workspace string
	env       map[string]string
	logger    *seglog.Logger
	artifacts artifacts.View
}

// NewExecutionContext assembles an ExecutionContext. Schedulers call this;
// segment bodies only ever receive the result.
func NewExecutionContext(workspace string, env map[string]string, logger *seglog.Logger, view artifacts.View) *ExecutionContext {
	return &ExecutionContext{workspace: workspace, env: env, logger: logger, artifacts: view}
}

// Workspace is the absolute path to the working-directory root for this run.
func (c *ExecutionContext) Workspace() string { return c.workspace }

// Env reads an environment variable: the scheduler's env overlay first,
// falling back to the process environment.
func (c *ExecutionContext) Env(name string) (string, bool) {
	if v, ok := c.env[name]; ok {
		return v, true
	}
	return os.LookupEnv(name)
}

// Logger is this segment's log stream.
func (c *ExecutionContext) Logger() *seglog.Logger { return c.logger }

// Artifacts is this segment's scoped view over its declared inputs that
// were produced by its transitive dependencies.
func (c *ExecutionContext) Artifacts() artifacts.View { return c.artifacts }

// Run launches command with args in the workspace, raising an error on a
// non-zero exit. Command start/completion and output are mirrored to the
// segment's logger.
func (c *ExecutionContext) Run(ctx context.Context, command string, args []string, timeout time.Duration) (procexec.Result, error) {
	return c.runLogged(ctx, command, args, timeout)
}

// RunOrNil behaves like Run but returns a zero Result and false instead of
// an error on any failure.
func (c *ExecutionContext) RunOrNil(ctx context.Context, command string, args []string, timeout time.Duration) (procexec.Result, bool) {
	res, err := c.runLogged(ctx, command, args, timeout)
	if err != nil {
		return procexec.Result{}, false
	}
	return res, true
}

// Shell runs line through the platform shell, raising an error on a
// non-zero exit.
func (c *ExecutionContext) Shell(ctx context.Context, line string, timeout time.Duration) (procexec.Result, error) {
	display := "$ " + line
	if c.logger != nil {
		c.logger.LogCommandStart(line)
	}
	start := time.Now()
	res, err := procexec.Shell(ctx, line, procexec.Options{Dir: c.workspace, Env: c.env, Timeout: timeout})
	c.completeLog(display, res, err, time.Since(start))
	return res, err
}

func (c *ExecutionContext) runLogged(ctx context.Context, command string, args []string, timeout time.Duration) (procexec.Result, error) {
	display := command
	for _, a := range args {
		display += " " + a
	}
	if c.logger != nil {
		c.logger.LogCommandStart(display)
	}
	start := time.Now()
	res, err := procexec.Run(ctx, command, args, procexec.Options{Dir: c.workspace, Env: c.env, Timeout: timeout})
	c.completeLog(display, res, err, time.Since(start))
	return res, err
}

func (c *ExecutionContext) completeLog(display string, res procexec.Result, err error, elapsed time.Duration) {
	if c.logger == nil {
		return
	}
	if res.Output != "" {
		c.logger.LogCommandOutput(res.Output, err != nil)
	}
	exitCode := res.ExitCode
	if err != nil && exitCode == 0 {
		exitCode = -1
	}
	c.logger.LogCommandComplete(display, exitCode, elapsed.Milliseconds())
}
