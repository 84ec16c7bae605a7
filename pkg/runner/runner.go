// Package runner executes the external analysis engine under a
// single-flight guard with timeout, cancellation and result caching, and
// classifies what it produced.
//
// Run never returns an error: every failure, including a rejected
// concurrent call, is reported as issues on the returned Outcome.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/simonhull/firebird-suite/heron/pkg/classify"
	"github.com/simonhull/firebird-suite/heron/pkg/exec"
	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
	"github.com/simonhull/firebird-suite/heron/pkg/project"
)

var (
	// ErrAlreadyRunning marks an outcome rejected by the single-flight guard.
	ErrAlreadyRunning = errors.New("analysis already in progress")
	// ErrTimeout marks an outcome whose engine ran past its deadline.
	ErrTimeout = errors.New("analysis timed out")
	// ErrCancelled marks an outcome whose context was cancelled.
	ErrCancelled = errors.New("analysis cancelled")
)

// State is the runner's guard state or an outcome's terminal state.
type State string

const (
	Idle      State = "idle"
	Running   State = "running"
	Completed State = "completed"
	TimedOut  State = "timed_out"
	Cancelled State = "cancelled"
	Failed    State = "failed"
	Rejected  State = "rejected" // Refused by the single-flight guard; nothing ran
)

// Outcome is the immutable result of one Run.
type Outcome struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Request   Request         `json:"request" yaml:"request"`
	State     State           `json:"state" yaml:"state"`
	Succeeded bool            `json:"succeeded" yaml:"succeeded"`
	Partial   bool            `json:"partial_data_available" yaml:"partial_data_available"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
	ExitCode  int             `json:"exit_code" yaml:"exit_code"`
	Errors    classify.Issues `json:"errors" yaml:"errors"`
	Warnings  classify.Issues `json:"warnings" yaml:"warnings"`
	Payload   payload.Value   `json:"-" yaml:"-"`
	Digest    uint64          `json:"digest,omitempty" yaml:"digest,omitempty"` // xxhash of the canonical payload
	Engine    string          `json:"engine,omitempty" yaml:"engine,omitempty"`
	Cached    bool            `json:"cached" yaml:"cached"`
}

// Err summarizes the errors of o, or returns nil when there are none. The
// result matches ErrAlreadyRunning, ErrTimeout or ErrCancelled with
// errors.Is where applicable.
func (o *Outcome) Err() error {
	if len(o.Errors) == 0 {
		return nil
	}
	switch o.State {
	case Rejected:
		return errors.Join(ErrAlreadyRunning, o.Errors)
	case TimedOut:
		return errors.Join(ErrTimeout, o.Errors)
	case Cancelled:
		return errors.Join(ErrCancelled, o.Errors)
	default:
		return o.Errors
	}
}

func (o *Outcome) clone() *Outcome {
	c := *o
	c.Errors = append(classify.Issues(nil), o.Errors...)
	c.Warnings = append(classify.Issues(nil), o.Warnings...)
	return &c
}

// Options configures a Runner.
type Options struct {
	Command     string        // Engine executable looked up on PATH
	Args        []string      // Arguments placed before the project root
	SearchPaths []string      // Globs relative to the project root tried before Command
	Timeout     time.Duration // Default timeout; 0 means none
	Executor    *exec.Executor
	Logger      logger.Logger
}

// Runner runs at most one analysis at a time.
type Runner struct {
	command     string
	args        []string
	searchPaths []string
	timeout     time.Duration
	exec        *exec.Executor
	logger      logger.Logger

	state atomic.Value // State

	mu    sync.RWMutex
	cache map[cacheKey]*Outcome
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Executor == nil {
		opts.Executor = exec.NewExecutor(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	r := &Runner{
		command:     opts.Command,
		args:        append([]string(nil), opts.Args...),
		searchPaths: append([]string(nil), opts.SearchPaths...),
		timeout:     opts.Timeout,
		exec:        opts.Executor,
		logger:      opts.Logger,
		cache:       make(map[cacheKey]*Outcome),
	}
	r.state.Store(Idle)
	return r
}

// State returns Running while an analysis is in flight and Idle otherwise.
func (r *Runner) State() State {
	return r.state.Load().(State)
}

// Run executes req. A call made while another Run is in flight is rejected
// at once with an AlreadyRunning issue and starts no process.
//
// progress may be nil. It is called from another goroutine, and its
// completion event may arrive after Run returns. The guard is released
// without waiting for it.
func (r *Runner) Run(ctx context.Context, req Request, progress ProgressListener) *Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Kind == "" {
		req.Kind = FullProject
	}
	runID := uuid.NewString()
	log := r.logger.WithFields(logger.F("run", runID), logger.F("kind", string(req.Kind)))

	if !r.state.CompareAndSwap(Idle, Running) {
		log.Warn("Analysis rejected", logger.F("reason", ErrAlreadyRunning.Error()))
		return &Outcome{
			RunID:    runID,
			Request:  req,
			State:    Rejected,
			ExitCode: -1,
			Errors: classify.Issues{{
				Kind:    classify.AlreadyRunning,
				Message: "an analysis is already in progress; wait for it to finish",
			}},
		}
	}
	defer r.state.Store(Idle)

	p := startPump(progress, log, "Starting analysis", 0)
	out := r.run(ctx, req, runID, p, log)
	p.finish(completionMessage(out), 100)

	log.Info("Analysis finished",
		logger.F("state", string(out.State)),
		logger.F("succeeded", out.Succeeded),
		logger.F("cached", out.Cached),
		logger.F("duration", out.Duration))
	return out
}

func completionMessage(o *Outcome) string {
	switch {
	case o.Cached:
		return "Analysis complete (cached)"
	case o.Succeeded:
		return "Analysis complete"
	case o.State == TimedOut:
		return "Analysis timed out"
	case o.State == Cancelled:
		return "Analysis cancelled"
	default:
		return "Analysis failed"
	}
}

func (r *Runner) run(ctx context.Context, req Request, runID string, p *pump, log logger.Logger) *Outcome {
	start := time.Now()
	out := &Outcome{RunID: runID, Request: req, ExitCode: -1}
	fail := func(state State, kind classify.Kind, msg string) *Outcome {
		out.State = state
		out.Errors = append(out.Errors, classify.Issue{Kind: kind, Message: msg})
		out.Duration = time.Since(start)
		return out
	}

	if req.Cache {
		if cached, ok := r.Cached(req); ok {
			log.Debug("Serving cached outcome", logger.F("from_run", cached.RunID))
			cached.RunID = runID
			cached.Cached = true
			return cached
		}
	}

	info, err := project.Detect(req.ProjectRoot)
	if err != nil {
		return fail(Failed, classify.Unknown, err.Error())
	}
	if info.GoModErr != nil {
		log.Warn("Ignoring unreadable go.mod", logger.F("error", info.GoModErr))
	}
	root := info.Root
	if req.Kind == CurrentFile && req.TargetFile == "" {
		return fail(Failed, classify.Unknown, "a current-file analysis needs a target file")
	}

	engine, err := r.resolveEngine(root, req)
	if err != nil {
		log.Warn("Analysis engine not found", logger.F("error", err))
		return fail(Failed, classify.EngineNotFound, err.Error())
	}
	out.Engine = engine

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	log.Info("Starting analysis engine",
		logger.F("engine", engine),
		logger.F("root", root),
		logger.F("project", info.Kind()))

	res, err := r.exec.Capture(runCtx, exec.Invocation{
		Name: engine,
		Args: r.engineArgs(root, req),
		Dir:  root,
		OnStderrLine: func(line string) {
			if msg, pct, ok := parseProgress(line); ok {
				p.offer(msg, pct)
			}
		},
	})
	if res != nil {
		out.ExitCode = res.ExitCode
	}

	switch {
	case err == nil:
		cl := classify.Classify(res.Stdout, res.Stderr, res.ExitCode)
		out.State = Completed
		if res.ExitCode != 0 {
			out.State = Failed
		}
		r.apply(out, cl)
	case errors.Is(err, ErrTimeout) || errors.Is(context.Cause(ctx), context.DeadlineExceeded):
		// Whatever the engine flushed before it was killed is still useful.
		if res != nil {
			r.apply(out, classify.Partial(res.Stdout))
		}
		msg := "analysis deadline exceeded"
		if timeout > 0 {
			msg = fmt.Sprintf("analysis did not finish within %s", timeout)
		}
		out.State = TimedOut
		out.Succeeded = false
		out.Errors = append(out.Errors, classify.Issue{Kind: classify.Timeout, Message: msg})
	case ctx.Err() != nil:
		return fail(Cancelled, classify.Cancelled, "analysis was cancelled")
	case errors.Is(err, exec.ErrCommandNotFound):
		return fail(Failed, classify.EngineNotFound, err.Error())
	default:
		return fail(Failed, classify.Unknown, err.Error())
	}

	out.Succeeded = out.State == Completed && out.Succeeded
	out.Duration = time.Since(start)

	if out.Succeeded {
		r.store(req, out)
	}
	return out
}

// apply copies a classification onto out and fingerprints the payload.
func (r *Runner) apply(out *Outcome, cl classify.Result) {
	out.Succeeded = cl.Succeeded
	out.Errors = append(out.Errors, cl.Errors...)
	out.Warnings = append(out.Warnings, cl.Warnings...)
	out.Payload = cl.Payload
	out.Partial = cl.PartialDataAvailable()
	out.Digest = Digest(cl.Payload)
}

// Digest fingerprints a payload. Equal payloads hash equally regardless of
// key order in the engine's output; an absent payload hashes to 0.
func Digest(v payload.Value) uint64 {
	if !v.Present() {
		return 0
	}
	// encoding/json sorts map keys.
	raw, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(raw)
}

// Cached returns a copy of the cached outcome for req's cache slot.
func (r *Runner) Cached(req Request) (*Outcome, bool) {
	if req.Kind == "" {
		req.Kind = FullProject
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.cache[req.key()]
	if !ok {
		return nil, false
	}
	return o.clone(), true
}

func (r *Runner) store(req Request, out *Outcome) {
	snapshot := out.clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[req.key()] = snapshot
}

// Invalidate drops every cached outcome for root and kind. File watchers
// call it when sources change.
func (r *Runner) Invalidate(root string, kind Kind) {
	root = cleanRoot(root)
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.cache {
		if k.root == root && k.kind == kind {
			delete(r.cache, k)
		}
	}
}

// InvalidateAll empties the cache.
func (r *Runner) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.cache)
}

// Roots returns the project roots that currently have cached outcomes.
func (r *Runner) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var roots []string
	for k := range r.cache {
		if !seen[k.root] {
			seen[k.root] = true
			roots = append(roots, filepath.ToSlash(k.root))
		}
	}
	return roots
}
