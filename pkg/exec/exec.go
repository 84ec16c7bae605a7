// Package exec runs external commands to completion and captures their output.
//
// Unlike os/exec it treats a non-zero exit as data rather than an error: the
// caller gets the exit code together with everything the process wrote.
// Errors are reserved for commands that could not be started and for runs
// that were terminated because their context ended.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	osexec "os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrCommandNotFound is returned when the executable cannot be located.
var ErrCommandNotFound = errors.New("command not found")

// DefaultWaitDelay bounds how long Capture waits for output pipes to drain
// after the process has exited or been killed.
const DefaultWaitDelay = 2 * time.Second

// Executor runs external commands
type Executor struct {
	env       []string
	dir       string
	waitDelay time.Duration

	// For mocking in tests
	commandFunc func(name string, args ...string) *osexec.Cmd
	lookPath    func(file string) (string, error)
}

// Options configures command execution
type Options struct {
	Env       []string      // Additional environment variables
	Dir       string        // Default working directory
	WaitDelay time.Duration // See DefaultWaitDelay
}

// Result is everything a finished (or terminated) process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 when the process was killed or never ran
	Duration time.Duration
}

// NewExecutor creates an executor with sensible defaults
func NewExecutor(opts *Options) *Executor {
	if opts == nil {
		opts = &Options{}
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}

	return &Executor{
		env:         opts.Env,
		dir:         opts.Dir,
		waitDelay:   opts.WaitDelay,
		commandFunc: osexec.Command,
		lookPath:    osexec.LookPath,
	}
}

// LookPath resolves an executable name the same way Capture will.
func (e *Executor) LookPath(name string) (string, error) {
	path, err := e.lookPath(name)
	if err != nil {
		if isCommandNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
		}
		return "", err
	}
	return path, nil
}

// Invocation describes one command run.
type Invocation struct {
	Name string
	Args []string
	Dir  string // Overrides the executor's directory when set

	// OnStderrLine, if set, receives each complete stderr line as it arrives.
	// It is called from the copy goroutine and must not block for long.
	OnStderrLine func(line string)
}

// Capture starts inv, waits for it to exit and returns its output.
//
// When ctx ends first the process is killed and Capture returns the partial
// Result together with an error wrapping context.Cause(ctx).
func (e *Executor) Capture(ctx context.Context, inv Invocation) (*Result, error) {
	cmd := e.commandFunc(inv.Name, inv.Args...)

	switch {
	case inv.Dir != "":
		cmd.Dir = inv.Dir
	case e.dir != "":
		cmd.Dir = e.dir
	}
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}

	var stdout, stderr bytes.Buffer
	lines := newLineWriter(&stderr, inv.OnStderrLine)
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = lines
	cmd.WaitDelay = e.waitDelay

	result := &Result{ExitCode: -1}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%s cancelled: %w", inv.Name, context.Cause(ctx))
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if isCommandNotFound(err) {
			return result, fmt.Errorf("%w: %s: %v", ErrCommandNotFound, inv.Name, err)
		}
		return result, fmt.Errorf("failed to start %s: %w", inv.Name, err)
	}

	exited := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(exited)
		return cmd.Wait()
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			// Kill may race with a natural exit; the error is irrelevant then.
			_ = cmd.Process.Kill()
		case <-exited:
		}
		return nil
	})
	waitErr := g.Wait()

	lines.Flush()
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	result.Duration = time.Since(start)

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s cancelled: %w", inv.Name, context.Cause(ctx))
	}

	var exitErr *osexec.ExitError
	switch {
	case waitErr == nil:
		result.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case errors.Is(waitErr, osexec.ErrWaitDelay):
		// Exited cleanly but a grandchild kept the pipes open.
		result.ExitCode = cmd.ProcessState.ExitCode()
	default:
		return result, fmt.Errorf("%s failed: %w", inv.Name, waitErr)
	}
	return result, nil
}

// isCommandNotFound checks if an error indicates a command was not found
func isCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, osexec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
