package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/simonhull/firebird-suite/heron/pkg/classify"
	"github.com/simonhull/firebird-suite/heron/pkg/config"
	"github.com/simonhull/firebird-suite/heron/pkg/exec"
	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	modeFile  = ".fake-engine"
	spawnFile = ".fake-engine-spawns"
)

// TestHelperProcess is the fake engine. It reads its behavior from the mode
// file in its working directory, which is the project root.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	f, err := os.OpenFile(spawnFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		fmt.Fprintln(f, "spawn")
		f.Close()
	}

	mode, _ := os.ReadFile(modeFile)
	switch strings.TrimSpace(string(mode)) {
	case "ok":
		fmt.Fprintln(os.Stderr, "PROGRESS 50 Parsing modules")
		out, _ := json.Marshal(map[string]any{
			"modules": map[string]any{"nodes": []any{map[string]any{"id": "a", "path": "a.py"}}},
			"engine":  map[string]any{"args": args},
		})
		fmt.Println(string(out))
		os.Exit(0)
	case "slow":
		fmt.Print(`{"modules":{"nodes":[{"id":"a"},{"id":"b"`)
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "missing-dep":
		fmt.Fprint(os.Stderr, "Traceback (most recent call last):\n"+
			"  File \"/engine/__main__.py\", line 3, in <module>\n"+
			"ModuleNotFoundError: No module named 'networkx'\n")
		os.Exit(1)
	case "partial":
		fmt.Println(`{"modules":{"nodes":[{"id":"a"}]}}`)
		fmt.Fprintln(os.Stderr, "fatal: not a git repository")
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "unknown fake engine mode")
		os.Exit(3)
	}
}

func newProject(t *testing.T, mode string) string {
	t.Helper()
	root := t.TempDir()
	setMode(t, root, mode)
	return root
}

func setMode(t *testing.T, root, mode string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, modeFile), []byte(mode), 0o644))
}

func spawns(root string) int {
	data, err := os.ReadFile(filepath.Join(root, spawnFile))
	if err != nil {
		return 0
	}
	return strings.Count(string(data), "spawn")
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	self, err := filepath.Abs(os.Args[0])
	require.NoError(t, err)
	return New(Options{
		Command:  self,
		Args:     []string{"-test.run=TestHelperProcess", "--"},
		Executor: exec.NewExecutor(&exec.Options{Env: []string{"GO_WANT_HELPER_PROCESS=1"}}),
		Logger:   logger.NewSilentLogger(),
	})
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) OnProgress(message string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%d %s", percent, message))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// last waits for the completion event, which may land after Run returns.
func (r *recorder) last(t *testing.T, want string) []string {
	t.Helper()
	assert.Eventually(t, func() bool {
		ev := r.all()
		return len(ev) > 0 && ev[len(ev)-1] == want
	}, 5*time.Second, 5*time.Millisecond)
	return r.all()
}

func issueKinds(is classify.Issues) []classify.Kind {
	out := []classify.Kind{}
	for _, i := range is {
		out = append(out, i.Kind)
	}
	return out
}

func TestRun_Success(t *testing.T) {
	root := newProject(t, "ok")
	r := newRunner(t)
	rec := &recorder{}

	out := r.Run(context.Background(), Request{ProjectRoot: root}, rec)

	require.True(t, out.Succeeded, out.Errors.Error())
	assert.Equal(t, Completed, out.State)
	assert.Equal(t, 0, out.ExitCode)
	assert.True(t, out.Partial)
	assert.NotEmpty(t, out.RunID)
	assert.NotZero(t, out.Digest)
	assert.Equal(t, FullProject, out.Request.Kind)
	assert.NoError(t, out.Err())
	assert.Equal(t, Idle, r.State())

	args := out.Payload.Path("engine", "args").Strings()
	abs, _ := filepath.Abs(root)
	assert.Equal(t, []string{abs, "--kind", "full"}, args)

	events := rec.last(t, "100 Analysis complete")
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "0 Starting analysis", events[0])
	assert.Contains(t, events, "50 Parsing modules")
}

func TestRun_CurrentFilePassesTarget(t *testing.T) {
	root := newProject(t, "ok")
	r := newRunner(t)

	out := r.Run(context.Background(), Request{ProjectRoot: root, Kind: CurrentFile}, nil)
	assert.Equal(t, Failed, out.State)
	assert.Equal(t, 0, spawns(root))

	out = r.Run(context.Background(), Request{ProjectRoot: root, Kind: CurrentFile, TargetFile: "app/views.py"}, nil)
	require.True(t, out.Succeeded)
	args := out.Payload.Path("engine", "args").Strings()
	assert.Equal(t, []string{"--kind", "file", "--file", "app/views.py"}, args[1:])
}

func TestRun_MissingDependency(t *testing.T) {
	root := newProject(t, "missing-dep")
	out := newRunner(t).Run(context.Background(), Request{ProjectRoot: root}, nil)

	assert.False(t, out.Succeeded)
	assert.Equal(t, Failed, out.State)
	assert.Equal(t, 1, out.ExitCode)
	assert.False(t, out.Partial)
	assert.Equal(t, []classify.Kind{classify.DependencyMissing}, issueKinds(out.Errors))
}

func TestRun_FailureKeepsPartialData(t *testing.T) {
	root := newProject(t, "partial")
	r := newRunner(t)
	out := r.Run(context.Background(), Request{ProjectRoot: root, Cache: true}, nil)

	assert.False(t, out.Succeeded)
	assert.True(t, out.Partial)
	assert.Equal(t, 2, out.ExitCode)
	assert.Equal(t, []classify.Kind{classify.GitUnavailable}, issueKinds(out.Errors))

	_, ok := r.Cached(Request{ProjectRoot: root})
	assert.False(t, ok)
}

func TestRun_EngineNotFound(t *testing.T) {
	root := newProject(t, "ok")
	r := New(Options{Command: "heron-engine-that-does-not-exist", Logger: logger.NewSilentLogger()})
	rec := &recorder{}

	out := r.Run(context.Background(), Request{ProjectRoot: root}, rec)

	assert.Equal(t, Failed, out.State)
	assert.Equal(t, []classify.Kind{classify.EngineNotFound}, issueKinds(out.Errors))
	assert.Equal(t, []string{"0 Starting analysis", "100 Analysis failed"}, rec.last(t, "100 Analysis failed"))
}

func TestRun_BadProjectRoot(t *testing.T) {
	out := newRunner(t).Run(context.Background(), Request{ProjectRoot: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Equal(t, Failed, out.State)
	assert.Equal(t, []classify.Kind{classify.Unknown}, issueKinds(out.Errors))
}

func TestRun_Timeout(t *testing.T) {
	root := newProject(t, "slow")
	r := newRunner(t)

	out := r.Run(context.Background(), Request{ProjectRoot: root, Timeout: time.Second}, nil)

	assert.Equal(t, TimedOut, out.State)
	assert.False(t, out.Succeeded)
	assert.True(t, out.Errors.Has(classify.Timeout))
	assert.True(t, out.Partial, "flushed output should be recovered")
	assert.ErrorIs(t, out.Err(), ErrTimeout)
	assert.Equal(t, Idle, r.State())

	setMode(t, root, "ok")
	out = r.Run(context.Background(), Request{ProjectRoot: root}, nil)
	assert.True(t, out.Succeeded)
}

func TestRun_Cancelled(t *testing.T) {
	root := newProject(t, "slow")
	r := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for spawns(root) == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
	}()
	out := r.Run(ctx, Request{ProjectRoot: root}, nil)

	assert.Equal(t, Cancelled, out.State)
	assert.Equal(t, []classify.Kind{classify.Cancelled}, issueKinds(out.Errors))
	assert.False(t, out.Payload.Present())
	assert.ErrorIs(t, out.Err(), ErrCancelled)
	assert.Equal(t, Idle, r.State())
}

func TestRun_AlreadyRunning(t *testing.T) {
	root := newProject(t, "slow")
	r := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan *Outcome, 1)
	go func() {
		done <- r.Run(ctx, Request{ProjectRoot: root}, nil)
	}()

	assert.Eventually(t, func() bool { return spawns(root) == 1 }, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, Running, r.State())

	rec := &recorder{}
	second := r.Run(context.Background(), Request{ProjectRoot: root}, rec)
	assert.Equal(t, Rejected, second.State)
	assert.Equal(t, []classify.Kind{classify.AlreadyRunning}, issueKinds(second.Errors))
	assert.ErrorIs(t, second.Err(), ErrAlreadyRunning)
	assert.Empty(t, rec.all())
	assert.Equal(t, 1, spawns(root))

	cancel()
	first := <-done
	assert.Equal(t, Cancelled, first.State)
	assert.Equal(t, Idle, r.State())
}

func TestRun_Cache(t *testing.T) {
	root := newProject(t, "ok")
	r := newRunner(t)
	req := Request{ProjectRoot: root, Cache: true}

	first := r.Run(context.Background(), req, nil)
	require.True(t, first.Succeeded)
	assert.False(t, first.Cached)

	rec := &recorder{}
	second := r.Run(context.Background(), req, rec)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Digest, second.Digest)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 1, spawns(root))
	rec.last(t, "100 Analysis complete (cached)")

	// Requests that opt out never read the cache.
	r.Run(context.Background(), Request{ProjectRoot: root}, nil)
	assert.Equal(t, 2, spawns(root))

	_, ok := r.Cached(Request{ProjectRoot: root, Kind: Git})
	assert.False(t, ok)

	r.Invalidate(root, FullProject)
	_, ok = r.Cached(req)
	assert.False(t, ok)

	r.Run(context.Background(), req, nil)
	assert.Equal(t, 3, spawns(root))
	assert.Len(t, r.Roots(), 1)

	r.InvalidateAll()
	assert.Empty(t, r.Roots())
}

func TestRun_CacheKeyedByTarget(t *testing.T) {
	root := newProject(t, "ok")
	r := newRunner(t)

	r.Run(context.Background(), Request{ProjectRoot: root, Cache: true, Kind: CurrentFile, TargetFile: "a.py"}, nil)
	out := r.Run(context.Background(), Request{ProjectRoot: root, Cache: true, Kind: CurrentFile, TargetFile: "b.py"}, nil)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, spawns(root))

	r.Invalidate(root, CurrentFile)
	_, ok := r.Cached(Request{ProjectRoot: root, Kind: CurrentFile, TargetFile: "a.py"})
	assert.False(t, ok)
}

func TestRun_ListenerPanicIsContained(t *testing.T) {
	root := newProject(t, "ok")
	out := newRunner(t).Run(context.Background(), Request{ProjectRoot: root},
		ProgressFunc(func(string, int) { panic("listener bug") }))
	assert.True(t, out.Succeeded)
}

func TestRun_BlockingListenerDoesNotHoldGuard(t *testing.T) {
	root := newProject(t, "ok")
	r := newRunner(t)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stuck := ProgressFunc(func(string, int) { <-release })

	done := make(chan *Outcome, 1)
	go func() { done <- r.Run(context.Background(), Request{ProjectRoot: root}, stuck) }()

	var out *Outcome
	select {
	case out = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run waited on a blocked listener")
	}
	assert.True(t, out.Succeeded)
	assert.Equal(t, Idle, r.State())

	next := r.Run(context.Background(), Request{ProjectRoot: root}, nil)
	assert.NotEqual(t, Rejected, next.State)
	assert.True(t, next.Succeeded)
}

func TestPump_OfferAfterFinishIsDropped(t *testing.T) {
	rec := &recorder{}
	p := startPump(rec, logger.NewSilentLogger(), "start", 0)
	p.offer("middle", 50)
	p.finish("end", 100)
	p.offer("late", 60)
	p.finish("again", 100)

	assert.Equal(t, []string{"0 start", "50 middle", "100 end"}, rec.last(t, "100 end"))

	var nilPump *pump
	nilPump.offer("x", 1)
	nilPump.finish("x", 1)
}

func TestRun_BrokenGoModStillRuns(t *testing.T) {
	root := newProject(t, "ok")
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("this is not a go.mod\n"), 0o644))

	out := newRunner(t).Run(context.Background(), Request{ProjectRoot: root}, nil)
	assert.True(t, out.Succeeded, out.Errors.Error())
	assert.Equal(t, 1, spawns(root))
}

func TestResolveEngine(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, ".venv", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "heron-engine"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "heron-engine"), []byte("not executable"), 0o644))

	r := New(Options{
		Command:     "heron-engine-that-does-not-exist",
		SearchPaths: []string{"heron-engine", "**/bin/heron-engine"},
		Logger:      logger.NewSilentLogger(),
	})

	got, err := r.resolveEngine(root, Request{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "heron-engine"), got)

	got, err = r.resolveEngine(root, Request{EngineHint: filepath.Join(".venv", "bin", "heron-engine")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "heron-engine"), got)

	_, err = r.resolveEngine(root, Request{EngineHint: filepath.Join("tools", "missing")})
	assert.ErrorIs(t, err, exec.ErrCommandNotFound)

	_, err = r.resolveEngine(t.TempDir(), Request{})
	assert.ErrorIs(t, err, exec.ErrCommandNotFound)
}

func TestResolveEngine_DefaultVenvGlobs(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "venv", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "python3.12"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "pip"), []byte("#!/bin/sh\n"), 0o755))

	r := New(Options{
		Command:     "heron-engine-that-does-not-exist",
		SearchPaths: config.DefaultConfig().Engine.SearchPaths,
		Logger:      logger.NewSilentLogger(),
	})

	got, err := r.resolveEngine(root, Request{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "python3.12"), got)
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		msg  string
		pct  int
		ok   bool
	}{
		{"PROGRESS 40 Building call graph", "Building call graph", 40, true},
		{"  PROGRESS 75% Reading git history  ", "Reading git history", 75, true},
		{"PROGRESS 140 done", "done", 100, true},
		{"PROGRESS -3", "Analyzing", 0, true},
		{"PROGRESS soon", "", 0, false},
		{"progress 10 lower case", "", 0, false},
		{"Traceback (most recent call last):", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, pct, ok := parseProgress(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.pct, pct)
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"":             FullProject,
		"Full":         FullProject,
		"current-file": CurrentFile,
		"git":          Git,
		"schema":       DBSchema,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("everything")
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	a, _ := payload.Recover([]byte(`{"b":1,"a":[1,2]}`))
	b, _ := payload.Recover([]byte(`{ "a": [1, 2], "b": 1 }`))
	c, _ := payload.Recover([]byte(`{"a":[2,1],"b":1}`))

	assert.Equal(t, Digest(a), Digest(b))
	assert.NotEqual(t, Digest(a), Digest(c))
	assert.Zero(t, Digest(payload.Value{}))
}
